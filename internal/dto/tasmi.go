package dto

// RegisterTasmiRequest captures POST /tasmi payload.
type RegisterTasmiRequest struct {
	StudentID     string  `json:"studentId" validate:"required"`
	JuzLabel      string  `json:"juzLabel" validate:"required,max=100"`
	MemorizedJuz  *int    `json:"memorizedJuz" validate:"required,gte=0,lte=30"`
	PreferredDate *string `json:"preferredDate,omitempty"`
}

// ScheduleTasmiRequest sets the exam slot. Date is YYYY-MM-DD, Time is HH:MM.
type ScheduleTasmiRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// RejectTasmiRequest carries the rejection reason.
type RejectTasmiRequest struct {
	Reason string `json:"reason"`
}

// GradeTasmiRequest carries the four exam component scores.
type GradeTasmiRequest struct {
	Fluency *float64 `json:"fluency"`
	Tajwid  *float64 `json:"tajwid"`
	Adab    *float64 `json:"adab"`
	Rhythm  *float64 `json:"rhythm"`
	Note    string   `json:"note,omitempty"`
	Publish bool     `json:"publish,omitempty"`
}

// TasmiListQuery filters GET /tasmi.
type TasmiListQuery struct {
	Status    string `form:"status"`
	StudentID string `form:"studentId"`
	ClassID   string `form:"classId"`
	Month     int    `form:"month"`
	Year      int    `form:"year"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
