package models

// Tool-specific option payloads. The dispatcher passes options through as
// raw JSON; each tool unmarshals and validates its own struct.

// MergeOptions orders the input files before concatenation. PageOrder is
// a permutation of input indices; when absent the caller-supplied order
// is used.
type MergeOptions struct {
	PageOrder []int `json:"pageOrder,omitempty"`
}

// SplitOptions selects one of two split strategies: an explicit range
// string ("1-3,5,7-9", 1-based) or fixed chunks of EveryNPages.
type SplitOptions struct {
	SplitMethod string `json:"splitMethod,omitempty" validate:"omitempty,oneof=range everyNPages"`
	Ranges      string `json:"ranges,omitempty"`
	EveryNPages int    `json:"everyNPages,omitempty" validate:"omitempty,gte=1"`
}

// CompressOptions carries a quality hint, not a numeric target.
type CompressOptions struct {
	Quality string `json:"quality,omitempty" validate:"omitempty,oneof=low medium high"`
}

// RotateOptions rotates the listed pages (0-based); all pages when empty.
type RotateOptions struct {
	Pages []int `json:"pages,omitempty"`
	Angle int   `json:"angle,omitempty" validate:"omitempty,oneof=90 180 270 -90 -180 -270"`
}

// PageNumberOptions controls the stamped page numbers. Format may contain
// {n} and {total} placeholders.
type PageNumberOptions struct {
	StartNumber int    `json:"startNumber,omitempty" validate:"omitempty,gte=1"`
	Position    string `json:"position,omitempty" validate:"omitempty,oneof=topLeft topCenter topRight bottomLeft bottomCenter bottomRight"`
	Format      string `json:"format,omitempty"`
	FontSize    int    `json:"fontSize,omitempty" validate:"omitempty,gte=4,lte=72"`
}

// PageSelectionOptions names explicit 0-based page indices for the
// remove-pages and extract-pages tools.
type PageSelectionOptions struct {
	Pages []int `json:"pages" validate:"required,min=1"`
}

// Permissions is the permission set applied by protect-pdf.
type Permissions struct {
	Printing      bool `json:"printing"`
	Copying       bool `json:"copying"`
	Modifying     bool `json:"modifying"`
	Annotating    bool `json:"annotating"`
	FillingForms  bool `json:"fillingForms"`
	Accessibility bool `json:"accessibility"`
	Assembly      bool `json:"assembly"`
}

// ProtectOptions encrypts the document with a user password.
type ProtectOptions struct {
	Password    string       `json:"password" validate:"required,min=1"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

// UnlockOptions removes encryption; the password must be correct.
type UnlockOptions struct {
	Password string `json:"password" validate:"required,min=1"`
}

// WatermarkOptions overlays text or an uploaded image. At least one of
// Text or ImageFileID is required.
type WatermarkOptions struct {
	Text        string  `json:"text,omitempty"`
	ImageFileID *int64  `json:"imageFileId,omitempty"`
	FontSize    int     `json:"fontSize,omitempty" validate:"omitempty,gte=4,lte=144"`
	Opacity     float64 `json:"opacity,omitempty" validate:"omitempty,gt=0,lte=1"`
	Rotation    int     `json:"rotation,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Position    string  `json:"position,omitempty" validate:"omitempty,oneof=center topLeft topRight bottomLeft bottomRight"`
}

// SignOptions stamps a signature image onto one page.
type SignOptions struct {
	SignatureFileID int64   `json:"signatureFileId" validate:"required"`
	Page            int     `json:"page,omitempty" validate:"omitempty,gte=1"`
	X               float64 `json:"x,omitempty"`
	Y               float64 `json:"y,omitempty"`
	Scale           float64 `json:"scale,omitempty" validate:"omitempty,gt=0,lte=4"`
}
