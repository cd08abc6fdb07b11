package similarity

import "errors"

// ErrDistanceOutOfRange is returned for distances outside [0,2].
var ErrDistanceOutOfRange = errors.New("distance out of range")
