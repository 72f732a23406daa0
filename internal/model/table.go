package model

// TableStatus is the floor status of a physical table.
type TableStatus string

const (
    TableAvailable TableStatus = "AVAILABLE"
    TableOccupied  TableStatus = "OCCUPIED"
    TableReserved  TableStatus = "RESERVED"
)

// Table represents a physical dining table.
//
// Fields:
//  ID       – primary key identifier.
//  Number   – number painted on the table, unique per restaurant.
//  Capacity – seats at the table.
//  Area     – floor area such as "patio" or "main"; tables in the same
//             area may be pushed together.
//  IsActive – inactive tables are never offered.
//  Status   – floor status; set to OCCUPIED when a party arrives.
type Table struct {
    ID       uint64      `json:"id"`        // restaurant_tables.id
    Number   int         `json:"number"`    // restaurant_tables.number
    Capacity int         `json:"capacity"`  // restaurant_tables.capacity
    Area     string      `json:"area"`      // restaurant_tables.area
    IsActive bool        `json:"is_active"` // restaurant_tables.is_active
    Status   TableStatus `json:"status"`    // restaurant_tables.status
}
