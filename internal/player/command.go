package player

// Commands are plain values pushed through the loop's channel. The
// sessionEnded variant is internal: sessions use it to report their own
// termination, which serialises it with user commands.
type command interface {
	isCommand()
}

type enqueueTracksCmd struct {
	tracks []Track
}

type playNowCmd struct {
	track Track
}

type pauseCmd struct{}

type resumeCmd struct{}

type skipCmd struct{}

type stopCmd struct{}

type clearCmd struct{}

type sessionEndedCmd struct {
	session *session
}

func (enqueueTracksCmd) isCommand() {}
func (playNowCmd) isCommand()       {}
func (pauseCmd) isCommand()         {}
func (resumeCmd) isCommand()        {}
func (skipCmd) isCommand()          {}
func (stopCmd) isCommand()          {}
func (clearCmd) isCommand()         {}
func (sessionEndedCmd) isCommand()  {}
