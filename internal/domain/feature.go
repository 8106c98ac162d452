package domain

// FeatureID identifies a gated feature. Using a typed constant set instead of
// raw strings keeps lookups checked at the call site.
type FeatureID string

// Known feature IDs. The free and premium tables carry the same set of IDs;
// only Enabled and Limit differ between tiers.
const (
	FeaturePDFUpload       FeatureID = "pdf_upload"
	FeatureBasicVoices     FeatureID = "basic_voices"
	FeatureSpeedControl    FeatureID = "speed_control"
	FeatureBookmarks       FeatureID = "bookmarks"
	FeatureRecentFiles     FeatureID = "recent_files"
	FeaturePremiumVoices   FeatureID = "premium_voices"
	FeatureUnlimitedExport FeatureID = "unlimited_export"
	FeatureUnlimitedLib    FeatureID = "unlimited_library"
	FeatureVoiceCloning    FeatureID = "voice_cloning"
)

// LimitUnlimited marks a feature without a usage ceiling.
const LimitUnlimited = -1

// Free tier limits.
const (
	FreeBookmarkLimit = 3
	FreeLibraryLimit  = 5
)

// Feature describes one entry of a tier's feature table.
type Feature struct {
	ID      FeatureID `json:"id"`
	Name    string    `json:"name"`
	Enabled bool      `json:"enabled"`
	// Limit is the usage ceiling; LimitUnlimited means no ceiling.
	// Features without a meaningful counter are unlimited.
	Limit int `json:"limit"`
}

// FreeFeatures returns the free tier feature table, in display order.
func FreeFeatures() []Feature {
	return []Feature{
		{ID: FeaturePDFUpload, Name: "PDF Upload", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureBasicVoices, Name: "Basic Voices", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureSpeedControl, Name: "Speed Control", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureBookmarks, Name: "Bookmarks", Enabled: true, Limit: FreeBookmarkLimit},
		{ID: FeatureRecentFiles, Name: "Recent Files", Enabled: true, Limit: FreeLibraryLimit},
		{ID: FeaturePremiumVoices, Name: "Premium Voices", Enabled: false, Limit: LimitUnlimited},
		{ID: FeatureUnlimitedExport, Name: "Unlimited Export", Enabled: false, Limit: LimitUnlimited},
		{ID: FeatureUnlimitedLib, Name: "Unlimited Library", Enabled: false, Limit: LimitUnlimited},
		{ID: FeatureVoiceCloning, Name: "Voice Cloning", Enabled: false, Limit: LimitUnlimited},
	}
}

// PremiumFeatures returns the premium tier feature table, in display order.
func PremiumFeatures() []Feature {
	return []Feature{
		{ID: FeaturePDFUpload, Name: "PDF Upload", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureBasicVoices, Name: "Basic Voices", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureSpeedControl, Name: "Speed Control", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureBookmarks, Name: "Bookmarks", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureRecentFiles, Name: "Recent Files", Enabled: true, Limit: LimitUnlimited},
		{ID: FeaturePremiumVoices, Name: "Premium Voices", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureUnlimitedExport, Name: "Unlimited Export", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureUnlimitedLib, Name: "Unlimited Library", Enabled: true, Limit: LimitUnlimited},
		{ID: FeatureVoiceCloning, Name: "Voice Cloning", Enabled: true, Limit: LimitUnlimited},
	}
}

// FindFeature looks up a feature by ID in a tier table.
func FindFeature(features []Feature, id FeatureID) (Feature, bool) {
	for _, f := range features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// LimitCheck is the result of a feature limit check.
type LimitCheck struct {
	Allowed   bool `json:"allowed"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	IsPremium bool `json:"is_premium"`
}

// CheckLimit evaluates usage against a tier table.
// Unknown feature IDs yield the fixed zero-limit result. Unlimited features
// always allow and report LimitUnlimited for both Limit and Remaining.
func CheckLimit(features []Feature, id FeatureID, usage int, isPremium bool) LimitCheck {
	f, ok := FindFeature(features, id)
	if !ok {
		return LimitCheck{Allowed: false, Limit: 0, Remaining: 0, IsPremium: isPremium}
	}

	if f.Limit == LimitUnlimited {
		return LimitCheck{Allowed: true, Limit: LimitUnlimited, Remaining: LimitUnlimited, IsPremium: isPremium}
	}

	remaining := f.Limit - usage
	return LimitCheck{
		Allowed:   remaining > 0,
		Limit:     f.Limit,
		Remaining: remaining,
		IsPremium: isPremium,
	}
}
