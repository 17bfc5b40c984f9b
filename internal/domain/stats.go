package domain

type WorkerStats struct {
	Worker     string `json:"worker"`
	Total      int    `json:"total"`
	Saturday   int    `json:"saturday"`
	Sunday     int    `json:"sunday"`
	Holiday    int    `json:"holiday"`
	PreHoliday int    `json:"preHoliday"`
	Special    int    `json:"special"`
}
