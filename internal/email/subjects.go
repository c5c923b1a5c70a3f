package email

const (
	subjectQuoteFmt        = "Devis %s - %s"
	subjectWelcomeFmt      = "Bienvenue sur Devis.ai, %s"
	subjectFeedbackFmt     = "Nouveau Feedback Devis.ai - %s"
	defaultQuoteGreeting   = "Bonjour,\nVeuillez trouver ci-joint notre devis.\nCordialement."
	feedbackDateLayout     = "02/01/2006"
	feedbackDateTimeLayout = "02/01/2006 15:04"
)
