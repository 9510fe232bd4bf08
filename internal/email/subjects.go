package email

const (
	subjectOverdueFmt          = "%d collaboration(s) past deadline"
	subjectDeadlineReminderFmt = "%d collaboration(s) due soon"
)
