package transport

import (
	"collab_pipeline_backend/internal/collaborations/repository"
)

func ToCollaborationResponse(c repository.Collaboration) CollaborationResponse {
	var blockReason *string
	if c.BlockReason != nil {
		value := string(*c.BlockReason)
		blockReason = &value
	}
	return CollaborationResponse{
		ID:              c.ID,
		BrandID:         c.BrandID,
		InfluencerID:    c.InfluencerID,
		BusinessStaffID: c.BusinessStaffID,
		Stage:           string(c.Stage),
		SampleID:        c.SampleID,
		QuotedPrice:     c.QuotedPrice,
		Deadline:        c.Deadline,
		IsOverdue:       c.IsOverdue,
		BlockReason:     blockReason,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func ToCardResponse(card repository.CollaborationCard) CollaborationCardResponse {
	return CollaborationCardResponse{
		CollaborationResponse: ToCollaborationResponse(card.Collaboration),
		InfluencerNickname:    card.InfluencerNickname,
		InfluencerPlatform:    card.InfluencerPlatform,
		InfluencerPlatformID:  card.InfluencerPlatformID,
		StaffName:             card.StaffName,
		FollowUpCount:         card.FollowUpCount,
		DispatchCount:         card.DispatchCount,
		LastFollowUpAt:        card.LastFollowUpAt,
		HasResult:             card.HasResult,
	}
}

func ToCardResponses(cards []repository.CollaborationCard) []CollaborationCardResponse {
	items := make([]CollaborationCardResponse, 0, len(cards))
	for _, card := range cards {
		items = append(items, ToCardResponse(card))
	}
	return items
}

func ToStageHistoryResponse(e repository.StageHistoryEntry) StageHistoryResponse {
	var from *string
	if e.FromStage != nil {
		value := string(*e.FromStage)
		from = &value
	}
	return StageHistoryResponse{
		ID:              e.ID,
		CollaborationID: e.CollaborationID,
		FromStage:       from,
		ToStage:         string(e.ToStage),
		Note:            e.Note,
		ChangedBy:       e.ChangedBy,
		ChangedAt:       e.ChangedAt,
	}
}

func ToFollowUpResponse(f repository.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:              f.ID,
		CollaborationID: f.CollaborationID,
		UserID:          f.UserID,
		UserName:        f.UserName,
		Content:         f.Content,
		CreatedAt:       f.CreatedAt,
	}
}

func ToSampleResponse(s repository.Sample) SampleResponse {
	return SampleResponse{
		ID:          s.ID,
		SKU:         s.SKU,
		Name:        s.Name,
		UnitCost:    s.UnitCost,
		RetailPrice: s.RetailPrice,
		CanResend:   s.CanResend,
		Notes:       s.Notes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func ToDispatchResponse(d repository.SampleDispatch) DispatchResponse {
	return DispatchResponse{
		ID:               d.ID,
		SampleID:         d.SampleID,
		SampleSKU:        d.SampleSKU,
		SampleName:       d.SampleName,
		CollaborationID:  d.CollaborationID,
		BusinessStaffID:  d.BusinessStaffID,
		Quantity:         d.Quantity,
		UnitCostSnapshot: d.UnitCostSnapshot,
		ShippingCost:     d.ShippingCost,
		TotalSampleCost:  d.TotalSampleCost,
		TotalCost:        d.TotalCost,
		TrackingNumber:   d.TrackingNumber,
		ReceivedStatus:   d.ReceivedStatus,
		ReceivedAt:       d.ReceivedAt,
		OnboardStatus:    d.OnboardStatus,
		DispatchedAt:     d.DispatchedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func ToResultResponse(r repository.Result) ResultResponse {
	return ResultResponse{
		ID:                     r.ID,
		CollaborationID:        r.CollaborationID,
		ContentType:            r.ContentType,
		PublishedAt:            r.PublishedAt,
		SalesQuantity:          r.SalesQuantity,
		SalesGmv:               r.SalesGmv,
		CommissionRateBps:      r.CommissionRateBps,
		PitFee:                 r.PitFee,
		ActualCommission:       r.ActualCommission,
		TotalSampleCost:        r.TotalSampleCost,
		TotalCollaborationCost: r.TotalCollaborationCost,
		ROI:                    r.ROI,
		ProfitStatus:           string(r.ProfitStatus),
		WillRepeat:             r.WillRepeat,
		Notes:                  r.Notes,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}
