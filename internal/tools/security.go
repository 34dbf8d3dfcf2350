package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// ProtectTool encrypts the document with AES-256. The same password is
// used for the user and owner slots; the permission set defaults to
// none when omitted.
type ProtectTool struct{}

func NewProtectTool() *ProtectTool { return &ProtectTool{} }

func (t *ProtectTool) ID() string { return "protect-pdf" }

func (t *ProtectTool) Accepts() []string { return []string{".pdf"} }

func permissionFlags(p *models.Permissions) model.PermissionFlags {
	perm := model.PermissionsNone
	if p == nil {
		return perm
	}
	if p.Printing {
		perm |= model.PermissionPrintRev2 | model.PermissionPrintRev3
	}
	if p.Copying {
		perm |= model.PermissionExtract
	}
	if p.Modifying {
		perm |= model.PermissionModify
	}
	if p.Annotating || p.FillingForms {
		perm |= model.PermissionModAnnFillForm
	}
	if p.FillingForms {
		perm |= model.PermissionFillRev3
	}
	if p.Accessibility {
		perm |= model.PermissionExtractRev3
	}
	if p.Assembly {
		perm |= model.PermissionAssembleRev3
	}
	return perm
}

func (t *ProtectTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.ProtectOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	conf := model.NewAESConfiguration(opts.Password, opts.Password, 256)
	conf.Permissions = permissionFlags(opts.Permissions)

	outPath := filepath.Join(req.WorkDir, "protected.pdf")
	if err := api.EncryptFile(req.Paths[0], outPath, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "protected_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"encrypted":   true,
			"permissions": opts.Permissions,
		},
	}, nil
}

// UnlockTool strips encryption given the correct password.
type UnlockTool struct{}

func NewUnlockTool() *UnlockTool { return &UnlockTool{} }

func (t *UnlockTool) ID() string { return "unlock-pdf" }

func (t *UnlockTool) Accepts() []string { return []string{".pdf"} }

func (t *UnlockTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.UnlockOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = opts.Password
	conf.OwnerPW = opts.Password

	outPath := filepath.Join(req.WorkDir, "unlocked.pdf")
	if err := api.DecryptFile(req.Paths[0], outPath, conf); err != nil {
		// A wrong password and an unencrypted document both surface
		// here; either way the input cannot be unlocked as requested.
		return nil, fmt.Errorf("%w: failed to unlock, check the password: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "unlocked_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"decrypted": true,
		},
	}, nil
}

// WatermarkTool overlays a text or image watermark on every page.
type WatermarkTool struct {
	conf *model.Configuration
}

func NewWatermarkTool() *WatermarkTool {
	return &WatermarkTool{conf: model.NewDefaultConfiguration()}
}

func (t *WatermarkTool) ID() string { return "add-watermark" }

func (t *WatermarkTool) Accepts() []string { return []string{".pdf"} }

var watermarkAnchors = map[string]string{
	"center":      "c",
	"topLeft":     "tl",
	"topRight":    "tr",
	"bottomLeft":  "bl",
	"bottomRight": "br",
}

func (t *WatermarkTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.WatermarkOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}
	if opts.Text == "" && opts.ImageFileID == nil {
		return nil, fmt.Errorf("%w: either text or imageFileId is required", ErrMissingOption)
	}

	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = 48
	}
	opacity := opts.Opacity
	if opacity == 0 {
		opacity = 0.3
	}
	rotation := opts.Rotation
	if opts.Rotation == 0 && opts.Text != "" {
		rotation = 45
	}
	anchor, ok := watermarkAnchors[opts.Position]
	if !ok {
		anchor = "c"
	}

	var wm *model.Watermark
	kind := "text"
	if opts.ImageFileID != nil {
		kind = "image"
		if req.Fetch == nil {
			return nil, fmt.Errorf("%w: image watermark not available", ErrMissingOption)
		}
		_, imgPath, err := req.Fetch(ctx, *opts.ImageFileID)
		if err != nil {
			return nil, fmt.Errorf("%w: watermark image: %v", ErrMissingOption, err)
		}
		desc := fmt.Sprintf("pos:%s, rot:%d, op:%.2f, scale:0.5 rel", anchor, rotation, opacity)
		wm, err = pdfcpu.ParseImageWatermarkDetails(imgPath, desc, true, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingOption, err)
		}
	} else {
		desc := fmt.Sprintf("fontname:Helvetica, points:%d, pos:%s, rot:%d, op:%.2f, scale:1 abs", fontSize, anchor, rotation, opacity)
		wm, err = api.TextWatermark(opts.Text, desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingOption, err)
		}
	}

	outPath := filepath.Join(req.WorkDir, "watermarked.pdf")
	if err := api.AddWatermarksFile(req.Paths[0], outPath, nil, wm, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "watermarked_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"watermarkType": kind,
			"position":      anchor,
			"opacity":       opacity,
		},
	}, nil
}

// SignTool stamps an uploaded signature image onto one page. The X/Y
// offsets are points from the page's bottom-left corner.
type SignTool struct {
	conf *model.Configuration
}

func NewSignTool() *SignTool {
	return &SignTool{conf: model.NewDefaultConfiguration()}
}

func (t *SignTool) ID() string { return "sign-pdf" }

func (t *SignTool) Accepts() []string { return []string{".pdf"} }

func (t *SignTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.SignOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}
	if req.Fetch == nil {
		return nil, fmt.Errorf("%w: signature image not available", ErrMissingOption)
	}
	sig, sigPath, err := req.Fetch(ctx, opts.SignatureFileID)
	if err != nil {
		return nil, fmt.Errorf("%w: signature image: %v", ErrMissingOption, err)
	}
	ext := strings.ToLower(filepath.Ext(sig.OriginalName))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return nil, fmt.Errorf("%w: signature must be a PNG or JPEG image", ErrUnsupportedInput)
	}

	page := opts.Page
	if page == 0 {
		page = 1
	}
	pageCount, err := api.PageCountFile(req.Paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	if page > pageCount {
		return nil, fmt.Errorf("%w: page %d out of range", ErrMissingOption, page)
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	desc := fmt.Sprintf("pos:bl, off:%d %d, scale:%.2f abs, rot:0, op:1", int(opts.X), int(opts.Y), scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(sigPath, desc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingOption, err)
	}

	outPath := filepath.Join(req.WorkDir, "signed.pdf")
	selection := []string{fmt.Sprintf("%d", page)}
	if err := api.AddWatermarksFile(req.Paths[0], outPath, selection, wm, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "signed_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"signedPage":      page,
			"signatureFileId": opts.SignatureFileID,
		},
	}, nil
}
