package midi

import (
	"log/slog"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Access exposes the registered gomidi driver's input ports as raw
// (status, key, velocity) streams. A driver must be registered by importing
// one, e.g. drivers/rtmididrv.
type Access struct {
	log *slog.Logger
}

func NewAccess(log *slog.Logger) *Access {
	return &Access{log: log}
}

func (a *Access) Inputs() []string {
	var names []string
	for _, in := range gomidi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// Listen opens the named port. Messages shorter than three bytes carry no
// note and are dropped.
func (a *Access) Listen(input string, handler func(status, key, velocity uint8)) (func(), error) {
	in, err := gomidi.FindInPort(input)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("find midi input", "MIDI input "+input+" was not found"))
	}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		if len(msg) < 3 {
			return
		}
		handler(msg[0], msg[1], msg[2])
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("listen to "+input))
	}
	a.log.Debug("listening to midi input", "input", input)
	return stop, nil
}

// Close releases the driver.
func (a *Access) Close() {
	gomidi.CloseDriver()
}
