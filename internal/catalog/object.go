// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package catalog

import (
	"fmt"
	"regexp"

	"github.com/tomtom215/docent/internal/validation"
)

// ObjectSummary is the display card for one collection object. Field names
// are part of the /fastly/recommend response contract.
type ObjectSummary struct {
	ObjectURL    string `json:"objectURL"`
	ImageURL     string `json:"imageURL"`
	Title        string `json:"title"`
	ArtistByline string `json:"artistByline"`
	ObjectDate   string `json:"objectDate"`
}

// rawObject is the subset of the collection API record Docent reads.
type rawObject struct {
	ObjectID          int    `json:"objectID"`
	ObjectURL         string `json:"objectURL" validate:"required"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	Title             string `json:"title"`
	ArtistDisplayName string `json:"artistDisplayName"`
	ArtistDisplayBio  string `json:"artistDisplayBio"`
	ObjectDate        string `json:"objectDate"`
}

// schemeAndHost matches the scheme and host of an absolute URL, up to and
// including the first path slash.
var schemeAndHost = regexp.MustCompile(`^https?://.*?/`)

// summarize validates raw and maps it onto an ObjectSummary.
func summarize(raw *rawObject, placeholderImage string) (*ObjectSummary, error) {
	if verr := validation.ValidateStruct(raw); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidObject, verr.Error())
	}

	imageURL := raw.PrimaryImageSmall
	if imageURL == "" {
		imageURL = placeholderImage
	}

	byline := raw.ArtistDisplayName
	if raw.ArtistDisplayBio != "" {
		byline += " " + raw.ArtistDisplayBio
	}

	return &ObjectSummary{
		ObjectURL:    schemeAndHost.ReplaceAllString(raw.ObjectURL, "/"),
		ImageURL:     imageURL,
		Title:        raw.Title,
		ArtistByline: byline,
		ObjectDate:   raw.ObjectDate,
	}, nil
}
