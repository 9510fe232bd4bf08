package domain

import "strings"

// BlockReason explains why a collaboration is stuck.
type BlockReason string

const (
	BlockPriceHigh     BlockReason = "PRICE_HIGH"
	BlockDelayed       BlockReason = "DELAYED"
	BlockUncooperative BlockReason = "UNCOOPERATIVE"
	BlockOther         BlockReason = "OTHER"
)

var blockReasonLabels = map[BlockReason]string{
	BlockPriceHigh:     "price too high",
	BlockDelayed:       "delayed",
	BlockUncooperative: "uncooperative",
	BlockOther:         "other",
}

func ParseBlockReason(raw string) (BlockReason, bool) {
	r := BlockReason(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := blockReasonLabels[r]
	return r, ok
}

// Label is the human readable form used in follow-up records.
func (r BlockReason) Label() string {
	if label, ok := blockReasonLabels[r]; ok {
		return label
	}
	return string(r)
}

// BlockFollowUpContent formats the follow-up note written alongside a block reason.
func BlockFollowUpContent(reason BlockReason, notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "[" + reason.Label() + "]"
	}
	return "[" + reason.Label() + "] " + notes
}
