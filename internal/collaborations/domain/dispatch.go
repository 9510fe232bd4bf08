package domain

// Received statuses of a sample shipment.
const (
	ReceivedPending  = "PENDING"
	ReceivedReceived = "RECEIVED"
	ReceivedLost     = "LOST"
)

// Onboard statuses record whether the creator agreed to feature the sample.
const (
	OnboardUnknown    = "UNKNOWN"
	OnboardOnboard    = "ONBOARD"
	OnboardNotOnboard = "NOT_ONBOARD"
)

// Content types of a published collaboration.
const (
	ContentShortVideo = "SHORT_VIDEO"
	ContentLiveStream = "LIVE_STREAM"
)
