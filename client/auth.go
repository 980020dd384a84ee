package client

// Auth is the compile-time marker distinguishing a Client that has an API
// key configured from one that doesn't, standing in for the upstream
// library's const-generic/associated-type marker. Only two
// implementations exist; both are unexported so callers can't invent a
// third.
type Auth interface {
	authenticated() bool
}

// Authenticated marks a Client with an API key configured. Endpoints
// flagged as requiring authentication can only be requested through a
// Client[Authenticated].
type Authenticated struct{}

func (Authenticated) authenticated() bool { return true }

// NotAuthenticated marks a Client with no API key. This is the starting
// state every Client is built in.
type NotAuthenticated struct{}

func (NotAuthenticated) authenticated() bool { return false }
