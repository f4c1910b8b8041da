package domain

// Command is one inbound transport event, keyed by the connection that
// produced it.
type Command interface {
	Conn() string
}

type JoinCommand struct {
	ConnectionID string
	DisplayName  string `validate:"required,min=2,max=30"`
}

func (c JoinCommand) Conn() string { return c.ConnectionID }

type PublicMessageCommand struct {
	ConnectionID string
	Body         string
}

func (c PublicMessageCommand) Conn() string { return c.ConnectionID }

type PrivateMessageCommand struct {
	ConnectionID       string
	TargetConnectionID string
	Body               string
}

func (c PrivateMessageCommand) Conn() string { return c.ConnectionID }

type TypingCommand struct {
	ConnectionID string
	Typing       bool
}

func (c TypingCommand) Conn() string { return c.ConnectionID }

type DisconnectCommand struct {
	ConnectionID string
}

func (c DisconnectCommand) Conn() string { return c.ConnectionID }
