package outlet

// Command is an outlet operation carried in a request frame.
type Command int

// Outlet commands. New commands need a constant here and an entry in
// commandNames.
const (
	CommandOn Command = iota + 1
	CommandOff
	CommandInfo
	CommandState
)

// UnknownCommandResponse is the response text for unrecognised requests.
const UnknownCommandResponse = "unknown command"

var commandNames = map[Command]string{
	CommandOn:    "on",
	CommandOff:   "off",
	CommandInfo:  "info",
	CommandState: "state",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(commandNames))
	for c, s := range commandNames {
		m[s] = c
	}
	return m
}()

// String returns the wire form of c.
func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// Commands returns every known command in declaration order.
func Commands() []Command {
	return []Command{CommandOn, CommandOff, CommandInfo, CommandState}
}

// ParseCommand maps a wire string to a Command. Matching is exact.
func ParseCommand(s string) (Command, bool) {
	c, ok := commandsByName[s]
	return c, ok
}

// Request is one outlet request.
type Request struct {
	Command Command
}

// Response is one outlet response.
type Response struct {
	Text string
}

// EncodeRequest returns the wire form of r.
func EncodeRequest(r Request) string {
	return r.Command.String()
}

// DecodeRequest parses a request payload. The boolean is false for unknown commands.
func DecodeRequest(s string) (Request, bool) {
	c, ok := ParseCommand(s)
	return Request{Command: c}, ok
}

// EncodeResponse returns the wire form of r.
func EncodeResponse(r Response) string {
	return r.Text
}

// DecodeResponse wraps a response payload.
func DecodeResponse(s string) Response {
	return Response{Text: s}
}
