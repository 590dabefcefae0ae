package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/plate-reader/internal/imaging"
	"github.com/ironsheep/plate-reader/internal/recognition"
	"github.com/ironsheep/plate-reader/internal/service"
	"github.com/ironsheep/plate-reader/internal/storage"
)

// Annotation colours for plate_annotate.
const (
	bestRegionColor  = "#FF0000"
	otherRegionColor = imaging.DefaultBoxColor
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_recognize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Malformed params or tool arguments return -32602.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var argErr *argumentError
		if errors.As(err, &argErr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// argumentError marks tool arguments that could not be decoded or are invalid.
type argumentError struct {
	err error
}

func (e *argumentError) Error() string { return "invalid arguments: " + e.err.Error() }
func (e *argumentError) Unwrap() error { return e.err }

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &argumentError{err: err}
	}
	return nil
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "plate_recognize":
		return s.handlePlateRecognize(ctx, args)
	case "plate_recognize_debug":
		return s.handlePlateRecognizeDebug(ctx, args)
	case "plate_predict":
		return s.handlePlatePredict(ctx, args)

	// Image views
	case "plate_enhance":
		return s.handlePlateEnhance(args)
	case "plate_variants":
		return s.handlePlateVariants(args)
	case "plate_annotate":
		return s.handlePlateAnnotate(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Blacklist and history
	case "blacklist_add":
		return s.handleBlacklistAdd(ctx, args)
	case "blacklist_add_by_photo":
		return s.handleBlacklistAddByPhoto(ctx, args)
	case "blacklist_list":
		return s.plates.Blacklist(ctx)
	case "blacklist_remove":
		return s.handleBlacklistRemove(ctx, args)
	case "plate_history":
		return s.plates.History(ctx)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

// loadPath decodes a path argument and loads the image through the cache.
func (s *Server) loadPath(args json.RawMessage) (string, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if a.Path == "" {
		return "", &argumentError{err: errors.New("path is required")}
	}
	return a.Path, nil
}

// === Recognition Handlers ===

// recognizeResult is the plate_recognize output.
type recognizeResult struct {
	Plate string `json:"plate"`
	recognition.Result
}

func (s *Server) handlePlateRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := s.plates.RecognizeImage(ctx, img)
	if err != nil {
		return nil, err
	}
	return recognizeResult{Plate: res.String(), Result: res}, nil
}

func (s *Server) handlePlateRecognizeDebug(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return s.plates.RecognizeImageDebug(ctx, img)
}

func (s *Server) handlePlatePredict(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return s.plates.Predict(ctx, data)
}

// === Image View Handlers ===

type plateEnhanceArgs struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

func (s *Server) handlePlateEnhance(args json.RawMessage) (interface{}, error) {
	var a plateEnhanceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	switch a.Mode {
	case "", "standard":
		return imaging.EncodePNG(s.enhancer.Enhance(img))
	case "aggressive":
		return imaging.EncodePNG(s.enhancer.EnhanceAggressive(img))
	default:
		return nil, &argumentError{err: fmt.Errorf("unknown mode %q (use standard or aggressive)", a.Mode)}
	}
}

type plateVariantsArgs struct {
	Path       string `json:"path"`
	Aggressive bool   `json:"aggressive"`
}

// encodedVariant is one plate_variants entry.
type encodedVariant struct {
	Name string `json:"name"`
	*imaging.EncodedImage
}

func (s *Server) handlePlateVariants(args json.RawMessage) (interface{}, error) {
	var a plateVariantsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	gen := *s.variants
	gen.Aggressive = a.Aggressive

	variants := gen.Generate(img)
	out := make([]encodedVariant, 0, len(variants))
	for _, v := range variants {
		enc, err := imaging.EncodePNG(v.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to encode variant %s: %w", v.Name, err)
		}
		out = append(out, encodedVariant{Name: v.Name, EncodedImage: enc})
	}
	return out, nil
}

type plateAnnotateArgs struct {
	Path      string `json:"path"`
	Thickness int    `json:"thickness"`
}

// annotateResult is the plate_annotate output.
type annotateResult struct {
	*imaging.EncodedImage
	Result     recognition.Result       `json:"result"`
	Regions    []recognition.RegionInfo `json:"regions"`
	BestRegion int                      `json:"best_region"`
}

func (s *Server) handlePlateAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a plateAnnotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Thickness == 0 {
		a.Thickness = 2
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	d, err := s.plates.RecognizeImageDebug(ctx, img)
	if err != nil {
		return nil, err
	}

	boxes := make([]imaging.Box, len(d.Located))
	for i, r := range d.Located {
		c := otherRegionColor
		if i == d.Best {
			c = bestRegionColor
		}
		boxes[i] = imaging.Box{Rect: r.Bounds, Label: imaging.BoxLabel(r.Label, r.Confidence), Color: c}
	}

	frame := d.Enhanced
	if frame == nil {
		frame = img
	}
	enc, err := imaging.EncodePNG(imaging.Annotate(frame, boxes, a.Thickness))
	if err != nil {
		return nil, err
	}
	return annotateResult{EncodedImage: enc, Result: d.Result, Regions: d.Regions, BestRegion: d.Best}, nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	path, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return imaging.Dimensions(img), nil
}

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === Blacklist and History Handlers ===

type blacklistAddArgs struct {
	Plate string `json:"plate"`
}

func (s *Server) handleBlacklistAdd(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a blacklistAddArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.plates.AddBlacklist(ctx, a.Plate)
	if errors.Is(err, service.ErrInvalidPlate) {
		return nil, &argumentError{err: err}
	}
	return res, err
}

func (s *Server) handleBlacklistAddByPhoto(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := s.loadPath(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return s.plates.AddBlacklistByImage(ctx, img)
}

type blacklistRemoveArgs struct {
	ID *int64 `json:"id"`
}

func (s *Server) handleBlacklistRemove(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a blacklistRemoveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID == nil {
		return nil, &argumentError{err: errors.New("id is required")}
	}
	if err := s.plates.RemoveBlacklist(ctx, *a.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("blacklist entry %d not found", *a.ID)
		}
		return nil, err
	}
	return map[string]interface{}{"status": "deleted", "id": *a.ID}, nil
}
