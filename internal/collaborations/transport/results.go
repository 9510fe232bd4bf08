package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateResultRequest records the outcome of a collaboration. Money is in cents and the
// commission rate in basis points.
type CreateResultRequest struct {
	CollaborationID   uuid.UUID `json:"collaborationId" validate:"required"`
	ContentType       string    `json:"contentType" validate:"required,oneof=SHORT_VIDEO LIVE_STREAM"`
	PublishedAt       time.Time `json:"publishedAt" validate:"required"`
	SalesQuantity     int       `json:"salesQuantity" validate:"min=0"`
	SalesGmv          int64     `json:"salesGmv" validate:"min=0"`
	CommissionRateBps int       `json:"commissionRateBps" validate:"min=0,max=10000"`
	PitFee            int64     `json:"pitFee" validate:"min=0"`
	ActualCommission  int64     `json:"actualCommission" validate:"min=0"`
	WillRepeat        bool      `json:"willRepeat"`
	Notes             *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateResultRequest struct {
	ContentType       *string    `json:"contentType,omitempty" validate:"omitempty,oneof=SHORT_VIDEO LIVE_STREAM"`
	PublishedAt       *time.Time `json:"publishedAt,omitempty"`
	SalesQuantity     *int       `json:"salesQuantity,omitempty" validate:"omitempty,min=0"`
	SalesGmv          *int64     `json:"salesGmv,omitempty" validate:"omitempty,min=0"`
	CommissionRateBps *int       `json:"commissionRateBps,omitempty" validate:"omitempty,min=0,max=10000"`
	PitFee            *int64     `json:"pitFee,omitempty" validate:"omitempty,min=0"`
	ActualCommission  *int64     `json:"actualCommission,omitempty" validate:"omitempty,min=0"`
	WillRepeat        *bool      `json:"willRepeat,omitempty"`
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ResultResponse struct {
	ID                     uuid.UUID `json:"id"`
	CollaborationID        uuid.UUID `json:"collaborationId"`
	ContentType            string    `json:"contentType"`
	PublishedAt            time.Time `json:"publishedAt"`
	SalesQuantity          int       `json:"salesQuantity"`
	SalesGmv               int64     `json:"salesGmv"`
	CommissionRateBps      int       `json:"commissionRateBps"`
	PitFee                 int64     `json:"pitFee"`
	ActualCommission       int64     `json:"actualCommission"`
	TotalSampleCost        int64     `json:"totalSampleCost"`
	TotalCollaborationCost int64     `json:"totalCollaborationCost"`
	// ROI is gmv / cost rounded to four places for display. ProfitStatus is classified on the
	// exact amounts and is authoritative when the two disagree near a boundary.
	ROI                    float64   `json:"roi"`
	ProfitStatus           string    `json:"profitStatus"`
	WillRepeat             bool      `json:"willRepeat"`
	Notes                  *string   `json:"notes,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

type ListResultsRequest struct {
	ProfitStatus string `form:"profitStatus" validate:"omitempty,oneof=LOSS BREAK_EVEN PROFIT HIGH_PROFIT"`
	ContentType  string `form:"contentType" validate:"omitempty,oneof=SHORT_VIDEO LIVE_STREAM"`
	StaffID      string `form:"staffId" validate:"omitempty,uuid"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ResultListResponse struct {
	Items      []ResultResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// ROIReportRequest dates are inclusive calendar days in YYYY-MM-DD.
type ROIReportRequest struct {
	GroupBy string `form:"groupBy" validate:"required,oneof=staff influencer month"`
	StaffID string `form:"staffId" validate:"omitempty,uuid"`
	From    string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To      string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

type ROIReportRow struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Count        int     `json:"count"`
	TotalGmv     int64   `json:"totalGmv"`
	TotalCost    int64   `json:"totalCost"`
	ROI          float64 `json:"roi"`
	ProfitStatus string  `json:"profitStatus"`
}

type ROIReportResponse struct {
	GroupBy string         `json:"groupBy"`
	Rows    []ROIReportRow `json:"rows"`
	Total   ROIReportRow   `json:"total"`
}
