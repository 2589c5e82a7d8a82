package models

import "fmt"

// Field enumerations accepted by the motion-control API. Out-of-enum values
// are rejected here instead of being passed through unchecked.
const (
	OrientationImage = "image"
	OrientationVideo = "video"

	ModeStandard = "std"
	ModePro      = "pro"

	SoundKeep = "yes"
	SoundDrop = "no"
)

// Upload size limits, enforced before anything is staged remotely.
const (
	MaxImageSize = 10 << 20  // 10 MiB
	MaxVideoSize = 100 << 20 // 100 MiB
)

// GenerateRequest carries the validated form fields of one generation
// submission. The two file uploads are handled separately.
type GenerateRequest struct {
	Prompt               string
	CharacterOrientation string
	Mode                 string
	KeepOriginalSound    string
}

func (r *GenerateRequest) Validate() error {
	switch r.CharacterOrientation {
	case OrientationImage, OrientationVideo:
	case "":
		return fmt.Errorf("character_orientation is required")
	default:
		return fmt.Errorf("character_orientation must be %q or %q", OrientationImage, OrientationVideo)
	}

	switch r.Mode {
	case ModeStandard, ModePro:
	case "":
		return fmt.Errorf("mode is required")
	default:
		return fmt.Errorf("mode must be %q or %q", ModeStandard, ModePro)
	}

	switch r.KeepOriginalSound {
	case SoundKeep, SoundDrop:
	default:
		return fmt.Errorf("keep_original_sound must be %q or %q", SoundKeep, SoundDrop)
	}

	return nil
}
