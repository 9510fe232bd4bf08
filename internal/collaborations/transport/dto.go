package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCollaborationRequest opens a collaboration with a creator. BusinessStaffID defaults to the caller.
type CreateCollaborationRequest struct {
	InfluencerID    uuid.UUID  `json:"influencerId" validate:"required"`
	BusinessStaffID *uuid.UUID `json:"businessStaffId,omitempty"`
	SampleID        *uuid.UUID `json:"sampleId,omitempty"`
	QuotedPrice     *int64     `json:"quotedPrice,omitempty" validate:"omitempty,min=0"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	ForceCreate     bool       `json:"forceCreate"`
}

type CollaborationResponse struct {
	ID              uuid.UUID  `json:"id"`
	BrandID         uuid.UUID  `json:"brandId"`
	InfluencerID    uuid.UUID  `json:"influencerId"`
	BusinessStaffID uuid.UUID  `json:"businessStaffId"`
	Stage           string     `json:"stage"`
	SampleID        *uuid.UUID `json:"sampleId,omitempty"`
	QuotedPrice     *int64     `json:"quotedPrice,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	IsOverdue       bool       `json:"isOverdue"`
	BlockReason     *string    `json:"blockReason,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CollaborationCardResponse is a collaboration as shown on list and kanban views.
type CollaborationCardResponse struct {
	CollaborationResponse
	InfluencerNickname   string     `json:"influencerNickname"`
	InfluencerPlatform   string     `json:"influencerPlatform"`
	InfluencerPlatformID string     `json:"influencerPlatformId"`
	StaffName            string     `json:"staffName"`
	FollowUpCount        int        `json:"followUpCount"`
	DispatchCount        int        `json:"dispatchCount"`
	LastFollowUpAt       *time.Time `json:"lastFollowUpAt,omitempty"`
	HasResult            bool       `json:"hasResult"`
}

type ListCollaborationsRequest struct {
	Stage        string `form:"stage" validate:"omitempty,oneof=LEAD CONTACTED QUOTED SAMPLED SCHEDULED PUBLISHED REVIEWED"`
	StaffID      string `form:"staffId" validate:"omitempty,uuid"`
	InfluencerID string `form:"influencerId" validate:"omitempty,uuid"`
	IsOverdue    *bool  `form:"isOverdue"`
	Keyword      string `form:"keyword" validate:"omitempty,max=100"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CollaborationListResponse struct {
	Items      []CollaborationCardResponse `json:"items"`
	Total      int                         `json:"total"`
	Page       int                         `json:"page"`
	PageSize   int                         `json:"pageSize"`
	TotalPages int                         `json:"totalPages"`
}

type CheckConflictRequest struct {
	InfluencerID string `form:"influencerId" validate:"required,uuid"`
	StaffID      string `form:"staffId" validate:"omitempty,uuid"`
}

type ConflictResponse struct {
	CollaborationID uuid.UUID `json:"collaborationId"`
	StaffID         uuid.UUID `json:"staffId"`
	StaffName       string    `json:"staffName"`
	Stage           string    `json:"stage"`
	ClaimedAt       time.Time `json:"claimedAt"`
}

type ConflictCheckResponse struct {
	HasConflict bool               `json:"hasConflict"`
	Conflicts   []ConflictResponse `json:"conflicts"`
}

type TransitionStageRequest struct {
	Stage string  `json:"stage" validate:"required,oneof=LEAD CONTACTED QUOTED SAMPLED SCHEDULED PUBLISHED REVIEWED"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type StageHistoryResponse struct {
	ID              uuid.UUID  `json:"id"`
	CollaborationID uuid.UUID  `json:"collaborationId"`
	FromStage       *string    `json:"fromStage,omitempty"`
	ToStage         string     `json:"toStage"`
	Note            *string    `json:"note,omitempty"`
	ChangedBy       *uuid.UUID `json:"changedBy,omitempty"`
	ChangedAt       time.Time  `json:"changedAt"`
}

type StageHistoryListResponse struct {
	Items []StageHistoryResponse `json:"items"`
}

// SetDeadlineRequest sets the deadline; a null deadline clears it.
type SetDeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// SetBlockReasonRequest sets or clears the block reason. With AddFollowUp a follow-up
// describing the block is written in the same transaction.
type SetBlockReasonRequest struct {
	BlockReason *string `json:"blockReason" validate:"omitempty,oneof=PRICE_HIGH DELAYED UNCOOPERATIVE OTHER"`
	Notes       string  `json:"notes" validate:"max=2000"`
	AddFollowUp bool    `json:"addFollowUp"`
}

type CreateFollowUpRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type FollowUpResponse struct {
	ID              uuid.UUID `json:"id"`
	CollaborationID uuid.UUID `json:"collaborationId"`
	UserID          uuid.UUID `json:"userId"`
	UserName        string    `json:"userName"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
}

type PageRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type FollowUpListResponse struct {
	Items      []FollowUpResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// =============================================================================
// Pipeline
// =============================================================================

type PipelineViewRequest struct {
	StaffID string `form:"staffId" validate:"omitempty,uuid"`
	Keyword string `form:"keyword" validate:"omitempty,max=100"`
}

type PipelineStageResponse struct {
	Stage          string                      `json:"stage"`
	Collaborations []CollaborationCardResponse `json:"collaborations"`
	Count          int                         `json:"count"`
}

type PipelineViewResponse struct {
	Stages     []PipelineStageResponse `json:"stages"`
	TotalCount int                     `json:"totalCount"`
}

type StageCountResponse struct {
	Stage        string `json:"stage"`
	Count        int    `json:"count"`
	OverdueCount int    `json:"overdueCount"`
}

type PipelineStatsResponse struct {
	Stages       []StageCountResponse `json:"stages"`
	Total        int                  `json:"total"`
	OverdueTotal int                  `json:"overdueTotal"`
}

// =============================================================================
// Overdue
// =============================================================================

type ListOverdueRequest struct {
	StaffID  string `form:"staffId" validate:"omitempty,uuid"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type OverdueSweepResponse struct {
	Marked  int64 `json:"marked"`
	Cleared int64 `json:"cleared"`
	Total   int64 `json:"total"`
}

type DeadlineReminderResponse struct {
	CollaborationID    uuid.UUID `json:"collaborationId"`
	BusinessStaffID    uuid.UUID `json:"businessStaffId"`
	InfluencerNickname string    `json:"influencerNickname"`
	Stage              string    `json:"stage"`
	Deadline           time.Time `json:"deadline"`
}

// RunChecksResponse reports one pass of the overdue sweep and deadline reminders.
type RunChecksResponse struct {
	Overdue              OverdueSweepResponse `json:"overdue"`
	DeadlinesApproaching int                  `json:"deadlinesApproaching"`
}
