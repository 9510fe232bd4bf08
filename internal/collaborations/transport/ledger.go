package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateSampleRequest struct {
	SKU         string  `json:"sku" validate:"required,min=1,max=100"`
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	UnitCost    int64   `json:"unitCost" validate:"min=0"`
	RetailPrice int64   `json:"retailPrice" validate:"min=0"`
	CanResend   *bool   `json:"canResend,omitempty"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateSampleRequest changes catalogue data only. Existing dispatches keep their snapshot.
type UpdateSampleRequest struct {
	SKU         *string `json:"sku,omitempty" validate:"omitempty,min=1,max=100"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	UnitCost    *int64  `json:"unitCost,omitempty" validate:"omitempty,min=0"`
	RetailPrice *int64  `json:"retailPrice,omitempty" validate:"omitempty,min=0"`
	CanResend   *bool   `json:"canResend,omitempty"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type SampleResponse struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	UnitCost    int64     `json:"unitCost"`
	RetailPrice int64     `json:"retailPrice"`
	CanResend   bool      `json:"canResend"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListSamplesRequest struct {
	Keyword  string `form:"keyword" validate:"omitempty,max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type SampleListResponse struct {
	Items      []SampleResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// DispatchSampleRequest records a shipment. Amounts are in cents.
type DispatchSampleRequest struct {
	SampleID        uuid.UUID `json:"sampleId" validate:"required"`
	CollaborationID uuid.UUID `json:"collaborationId" validate:"required"`
	Quantity        int       `json:"quantity"`
	ShippingCost    int64     `json:"shippingCost"`
	TrackingNumber  *string   `json:"trackingNumber,omitempty" validate:"omitempty,max=100"`
}

type UpdateDispatchStatusRequest struct {
	ReceivedStatus *string `json:"receivedStatus,omitempty" validate:"omitempty,oneof=PENDING RECEIVED LOST"`
	OnboardStatus  *string `json:"onboardStatus,omitempty" validate:"omitempty,oneof=UNKNOWN ONBOARD NOT_ONBOARD"`
	TrackingNumber *string `json:"trackingNumber,omitempty" validate:"omitempty,max=100"`
}

type DispatchResponse struct {
	ID               uuid.UUID  `json:"id"`
	SampleID         uuid.UUID  `json:"sampleId"`
	SampleSKU        string     `json:"sampleSku"`
	SampleName       string     `json:"sampleName"`
	CollaborationID  uuid.UUID  `json:"collaborationId"`
	BusinessStaffID  uuid.UUID  `json:"businessStaffId"`
	Quantity         int        `json:"quantity"`
	UnitCostSnapshot int64      `json:"unitCostSnapshot"`
	ShippingCost     int64      `json:"shippingCost"`
	TotalSampleCost  int64      `json:"totalSampleCost"`
	TotalCost        int64      `json:"totalCost"`
	TrackingNumber   *string    `json:"trackingNumber,omitempty"`
	ReceivedStatus   string     `json:"receivedStatus"`
	ReceivedAt       *time.Time `json:"receivedAt,omitempty"`
	OnboardStatus    string     `json:"onboardStatus"`
	DispatchedAt     time.Time  `json:"dispatchedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type DispatchListResponse struct {
	Items     []DispatchResponse `json:"items"`
	TotalCost int64              `json:"totalCost"`
}
