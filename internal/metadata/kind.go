package metadata

import (
	"path/filepath"
	"strings"
)

type Kind int

const (
	Other Kind = iota
	Photo
	Video
)

var (
	PhotoSuffixes = []string{".jpg", ".jpeg"}
	VideoSuffixes = []string{".mov", ".3gp", ".mp4"}
)

// CompanionSuffix is the exact-case suffix of the still image some cameras write next
// to a video, holding the shot date the video container lacks.
const CompanionSuffix = ".JPG"

func (k Kind) String() string {
	switch k {
	case Photo:
		return "photo"
	case Video:
		return "video"
	}
	return "other"
}

// KindOf decides the media kind from a file suffix, ignoring case.
func KindOf(suffix string) Kind {
	suffix = strings.ToLower(suffix)
	for _, s := range PhotoSuffixes {
		if s == suffix {
			return Photo
		}
	}
	for _, s := range VideoSuffixes {
		if s == suffix {
			return Video
		}
	}
	return Other
}

func IsMedia(name string) bool {
	return KindOf(filepath.Ext(name)) != Other
}
