// Package resolver turns a noisy spoken song request into a concrete playable
// track, scanning the playlist cache first and falling back to catalog search.
package resolver

import (
	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
	"github.com/Lucasrsv1/spotify-sm-module/internal/similarity"
)

// SearchBy narrows a song query with an album or artist qualifier.
type SearchBy string

const (
	SearchByAlbum  SearchBy = "ALBUM"
	SearchByArtist SearchBy = "ARTIST"
)

// Query is the immutable input of a single resolution.
type Query struct {
	Song      string
	SearchBy  SearchBy // empty when no qualifier
	Target    string   // album or artist name, empty when no qualifier
	QueueOnly bool
}

// qualified reports whether the query carries a usable qualifier.
func (q Query) qualified() bool {
	return q.SearchBy != "" && q.Target != ""
}

// Candidate is a track admitted past the filter, carrying the blended
// coefficient used for ranking and the strict coefficient used to break ties.
type Candidate struct {
	Track             music.Track
	Coefficient       float64
	StrictCoefficient float64
}

const (
	// DefaultAdmissionThreshold is the minimum blended coefficient a track
	// needs to be considered a possible match. Empirically chosen, kept for
	// behavioral compatibility.
	DefaultAdmissionThreshold = 0.69

	// DefaultVetoThreshold is the qualifier similarity below which a track is
	// disqualified outright: a user asking for the wrong artist or album must
	// not get the track no matter how well the title matched.
	DefaultVetoThreshold = 0.2

	nameWeight   = 3
	targetWeight = 2
)

// Config carries the filter thresholds.
type Config struct {
	AdmissionThreshold float64
	VetoThreshold      float64
}

// DefaultConfig returns the thresholds the module ships with.
func DefaultConfig() Config {
	return Config{
		AdmissionThreshold: DefaultAdmissionThreshold,
		VetoThreshold:      DefaultVetoThreshold,
	}
}

// filterTracks scores each track against the query and returns those admitted
// past the threshold, skipping tracks already selected (by ID) in a previous
// pass. Candidates preserve the order the tracks were given in.
func filterTracks(tracks []music.Track, q Query, selected []Candidate, cfg Config) []Candidate {
	var admitted []Candidate

	for _, track := range tracks {
		if containsTrack(selected, track.ID) || containsTrack(admitted, track.ID) {
			continue
		}

		name := similarity.RelaxedScore(track.Name, q.Song)
		strictName := similarity.Score(track.Name, q.Song)

		target := -1.0
		featuring := -1.0
		strictFeaturing := -1.0

		if q.qualified() {
			switch q.SearchBy {
			case SearchByAlbum:
				target = similarity.RelaxedScore(track.Album.Name, q.Target)

			case SearchByArtist:
				target = 0
				for _, artist := range track.Artists {
					if s := similarity.RelaxedScore(artist.Name, q.Target); s > target {
						target = s
					}
				}

				// The requested artist may live in the title as a featuring
				// credit instead of in the catalog's artist metadata.
				combined := q.Song + " " + q.Target
				featuring = similarity.RelaxedScore(track.Name, combined)
				strictFeaturing = similarity.Score(track.Name, combined)
			}
		}

		// The featuring credit explains the match when the unstripped title
		// resembles "song + artist" more than it resembles the bare song
		// title. Compared on the strict scores: a genuine credit keeps the
		// artist inside the parentheses, while an unrelated annotation
		// ("(Live)", "(Remix)") only ever loses ground against the input.
		featuringExplains := strictFeaturing > strictName

		sum := nameWeight * max(name, featuring)
		strictSum := nameWeight * max(strictName, strictFeaturing)

		totalWeight := float64(nameWeight)
		if q.qualified() {
			targetTerm := target
			strictTargetTerm := target
			if featuringExplains {
				// A featuring credit embedded in the title counts as
				// qualifier evidence.
				targetTerm = max(target, featuring)
				strictTargetTerm = max(target, strictFeaturing)
			}

			sum += targetWeight * targetTerm
			strictSum += targetWeight * strictTargetTerm
			totalWeight += targetWeight
		}

		if target != -1 && target < cfg.VetoThreshold && !featuringExplains {
			sum = 0
		}

		coefficient := sum / totalWeight
		strictCoefficient := strictSum / totalWeight

		if coefficient > cfg.AdmissionThreshold {
			admitted = append(admitted, Candidate{
				Track:             track,
				Coefficient:       coefficient,
				StrictCoefficient: strictCoefficient,
			})
		}
	}

	return admitted
}

func containsTrack(candidates []Candidate, id string) bool {
	for _, c := range candidates {
		if c.Track.ID == id {
			return true
		}
	}
	return false
}
