// ABOUTME: Playback session parameters
// ABOUTME: One session per file, carrying format, buffer size and loop budget
package player

import (
	"fmt"

	"github.com/adplay/adplay-go/pkg/audio"
	"github.com/google/uuid"
)

// Session describes the playback of one file
type Session struct {
	ID           uuid.UUID
	Path         string
	Subsong      int // -1 selects the song's default
	Loops        int // 0 plays forever
	Format       audio.Format
	BufferFrames int
}

// NewSession creates a session with a fresh ID
func NewSession(path string, subsong, loops int, format audio.Format, bufferFrames int) Session {
	return Session{
		ID:           uuid.New(),
		Path:         path,
		Subsong:      subsong,
		Loops:        loops,
		Format:       format,
		BufferFrames: bufferFrames,
	}
}

// String identifies the session in logs
func (s Session) String() string {
	return fmt.Sprintf("%s [%s]", s.Path, s.ID.String()[:8])
}
