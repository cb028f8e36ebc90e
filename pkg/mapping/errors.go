package mapping

import "errors"

var (
	// ErrUnknownContrast is returned for a contrast outside the known set
	ErrUnknownContrast = errors.New("mapping: unknown contrast")

	// ErrUnknownStatistic is returned for a track statistic outside the known set
	ErrUnknownStatistic = errors.New("mapping: unknown track statistic")

	// ErrUnsupportedCombination is returned when the contrast, statistic and
	// decoration cannot be used together
	ErrUnsupportedCombination = errors.New("mapping: unsupported combination")

	// ErrMissingPlugin is returned when a dixel or TOD decoration is requested
	// without the plugin that computes it
	ErrMissingPlugin = errors.New("mapping: decoration plugin not provided")

	// ErrImageAlreadySet is returned when a second image is attached
	ErrImageAlreadySet = errors.New("mapping: an image is already attached")

	// ErrImageContrast is returned when an image does not suit the contrast
	ErrImageContrast = errors.New("mapping: image is incompatible with contrast")

	// ErrMissingImage is returned when an image contrast is mapped before its
	// image has been attached
	ErrMissingImage = errors.New("mapping: contrast requires an image")

	// ErrShortStreamline is returned for streamlines with fewer than two points
	ErrShortStreamline = errors.New("mapping: streamline has fewer than two points")
)
