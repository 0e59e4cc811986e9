package utils

const (
	NODETOL = 1.e-12
	// AREATOL is the smallest overlap area kept when intersecting cell footprints
	AREATOL = 1.e-14
)
