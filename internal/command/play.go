package command

import (
	"fmt"
	"math"

	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
)

// PlayCommand is the payload of the "play" voice command as delivered by the
// host runtime. Either ID+URI (resolving an earlier disambiguation choice) or
// Song must be present. Parameter values arrive as strings; OnlyAddToQueue is
// the literal "TRUE" when the user asked to queue instead of play.
type PlayCommand struct {
	ID             string `json:"id,omitempty"`
	URI            string `json:"uri,omitempty"`
	Song           string `json:"song,omitempty"`
	SearchBy       string `json:"searchBy,omitempty"`
	Target         string `json:"target,omitempty"`
	OnlyAddToQueue string `json:"onlyAddToQueue,omitempty"`
}

// PlayResponse reports the outcome of a play command. When more than one
// candidate survived resolution, Options carries the ranked disambiguation
// list for the host to present.
type PlayResponse struct {
	Played  bool
	Options []Option
}

// OptionValue identifies a disambiguation choice; the host sends it back as a
// direct-id play command.
type OptionValue struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// Option is one entry of the disambiguation list shown to the user.
type Option struct {
	Value         OptionValue `json:"value"`
	Description   string      `json:"description"`
	Image         string      `json:"image,omitempty"`
	SecondaryInfo string      `json:"secondaryInfo"`
}

func optionFromTrack(t music.Track) Option {
	description := t.Name
	if len(t.Artists) > 0 {
		description = t.Name + " - " + t.Artists[0].Name
	}

	return Option{
		Value:         OptionValue{ID: t.ID, URI: t.ContextURI},
		Description:   description,
		Image:         bestThumbnail(t.Album.Images),
		SecondaryInfo: formatDuration(t.DurationMS),
	}
}

// bestThumbnail picks the largest cover image that still fits a 128px-tall
// thumbnail slot, falling back to the smallest image overall when every size
// is larger than that.
func bestThumbnail(images []music.Image) string {
	if len(images) == 0 {
		return ""
	}

	best := images[0]
	for _, img := range images {
		if best.Height <= 128 {
			if img.Height <= 128 && img.Height > best.Height {
				best = img
			}
		} else if img.Height <= best.Height {
			best = img
		}
	}
	return best.URL
}

// formatDuration renders a millisecond track duration as "M:SS".
func formatDuration(ms int) string {
	minutes := ms / 60000
	seconds := int(math.Round(float64(ms%60000) / 1000))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
