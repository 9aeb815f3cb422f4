package models

import "strings"

// Quality is a user-facing audio quality selector.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "high"
	QualityLossless Quality = "lossless"
	QualityHiRes    Quality = "hires"
)

// QualityProfile holds the remote parameters for a [Quality].
type QualityProfile struct {
	Level   string
	Bitrate int
}

var qualityProfiles = map[Quality]QualityProfile{
	QualityStandard: {Level: "standard", Bitrate: 320000},
	QualityHigh:     {Level: "exhigh", Bitrate: 320000},
	QualityLossless: {Level: "lossless", Bitrate: 999000},
	QualityHiRes:    {Level: "hires", Bitrate: 999000},
}

// ParseQuality maps a selector string to a [Quality], falling back to [QualityLossless].
func ParseQuality(s string) Quality {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := qualityProfiles[q]; ok {
		return q
	}
	return QualityLossless
}

// Profile returns the remote parameters for q. Unknown values use the lossless profile.
func (q Quality) Profile() QualityProfile {
	if p, ok := qualityProfiles[q]; ok {
		return p
	}
	return qualityProfiles[QualityLossless]
}

func (q Quality) String() string { return string(q) }
