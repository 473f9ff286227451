package analytics

// Overview es el tablero general; "hoy" se evalúa en la zona del zoo.
type Overview struct {
	TotalAnimals      int     `json:"total_animals"`
	TotalVisitors     int     `json:"total_visitors"`
	TotalTickets      int     `json:"total_tickets"`
	TotalExhibits     int     `json:"total_exhibits"`
	TotalStaff        int     `json:"total_staff"`
	TodayRevenue      float64 `json:"today_revenue"`
	TodayVisitors     int     `json:"today_visitors"`
	EndangeredAnimals int     `json:"endangered_animals"`
	OpenExhibits      int     `json:"open_exhibits"`
}

type DailyRevenue struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Revenue float64 `json:"revenue"`
	Tickets int     `json:"tickets"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TicketTypeShare struct {
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type SpeciesShare struct {
	Species    string `json:"species"`
	Count      int    `json:"count"`
	Endangered int    `json:"endangered"`
}

type OccupancyRate struct {
	ExhibitID     string  `json:"exhibit_id"`
	Name          string  `json:"name"`
	Capacity      int     `json:"capacity"`
	Occupied      int     `json:"occupied"`
	OccupancyRate float64 `json:"occupancy_rate"` // porcentaje con 2 decimales
}
