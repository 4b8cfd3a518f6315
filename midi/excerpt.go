package midi

import (
	"gitlab.com/gomidi/midi/v2/smf"
)

func isNote(msg smf.Message) bool {
	var ch, key, vel uint8
	return msg.GetNoteOn(&ch, &key, &vel) || msg.GetNoteOff(&ch, &key, &vel)
}

// Excerpt copies mf from fromTicks on, keeping at most maxNotes note on/off
// events per track. Events before fromTicks that are not notes (tempo,
// program changes) are kept at the start of the excerpt. maxNotes <= 0
// means no limit.
func Excerpt(mf *smf.SMF, fromTicks uint64, maxNotes int) *smf.SMF {
	res := smf.New()
	res.TimeFormat = mf.TimeFormat

	for _, track := range mf.Tracks {
		var newTrack smf.Track
		var absTicks, lastEmit uint64
		var numNotes int
	TrackEventLoop:
		for _, evt := range track {
			absTicks += uint64(evt.Delta)
			if isEndOfTrack(evt.Message) {
				break
			}
			note := isNote(evt.Message)
			if note && absTicks < fromTicks {
				continue
			}

			var at uint64
			if absTicks > fromTicks {
				at = absTicks - fromTicks
			}
			evt.Delta = uint32(at - lastEmit)
			lastEmit = at
			newTrack = append(newTrack, evt)

			if note {
				numNotes++
				if maxNotes > 0 && numNotes >= maxNotes {
					break TrackEventLoop
				}
			}
		}
		newTrack.Close(0)
		res.Tracks = append(res.Tracks, newTrack)
	}

	return res
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}
