package config

import "frontier/internal/engine/dataset"

func statusOf(s string) dataset.Status {
	switch s {
	case "new":
		return dataset.StatusNew
	case "changed":
		return dataset.StatusChanged
	default:
		return dataset.StatusOld
	}
}
