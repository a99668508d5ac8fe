package auth

// Claims representa la identidad extraída del token (o de los headers dev).
type Claims struct {
	UserID    string
	ActorType string // parent | clinician | school
	Email     string
}
