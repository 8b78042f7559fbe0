package ai

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"photosorter/internal/config"
	"photosorter/internal/logger"
	"photosorter/internal/model"
)

const (
	// DetectionThreshold is the minimum confidence for object detections.
	DetectionThreshold = 0.5
	// LabelPerson is the label the classification pipeline counts.
	LabelPerson = "person"
)

// ErrModelUnavailable is returned when the detection network never loaded.
var ErrModelUnavailable = errors.New("detection model unavailable")

// Detector turns raw image bytes into object detections.
type Detector interface {
	// Detect decodes the image and returns all detections above the
	// confidence threshold. A decode failure or an unloaded model is an error.
	Detect(imageBytes []byte) ([]model.Detection, error)
	// Ready reports whether the detection network is loaded.
	Ready() bool
}

// DetectorService runs an SSD MobileNet network through the OpenCV DNN module.
type DetectorService struct {
	net        gocv.Net
	ready      bool
	modelPath  string
	configPath string
	logger     *logger.Logger
}

// NewDetectorService creates a detector with model/config paths and a logger.
// It attempts to initialize the underlying DNN network. A load failure is
// logged and leaves the service refusing detection calls, not crashing.
func NewDetectorService(config *config.Config, logger *logger.Logger) *DetectorService {
	service := &DetectorService{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		logger:     logger,
	}

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize detection network: %v", err)
		return service
	}

	return service
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)

	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)

	if errBackend != nil || errTarget != nil {
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.ready = true
	s.logger.Info("Detection network initialized successfully")
	return nil
}

// Ready reports whether the detection network loaded.
func (s *DetectorService) Ready() bool {
	return s.ready
}

// Detect runs the DNN on the image and returns detections above the confidence threshold.
func (s *DetectorService) Detect(imageBytes []byte) ([]model.Detection, error) {
	if !s.ready || s.net.Empty() {
		return nil, ErrModelUnavailable
	}

	//Convert image to mat
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}
	//Create blob with parameters that fit ssd coco net input
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	var results []model.Detection

	// Process detections with output: [ batch_id, class_id, confidence, x1, y1, x2, y2 ]
	outputReshaped := output.Reshape(1, output.Total()/7)
	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := outputReshaped.GetFloatAt(i, 2)
		if confidence > DetectionThreshold {
			classID := int(outputReshaped.GetFloatAt(i, 1))
			x := int(outputReshaped.GetFloatAt(i, 3) * float32(mat.Cols()))
			y := int(outputReshaped.GetFloatAt(i, 4) * float32(mat.Rows()))
			width := int(outputReshaped.GetFloatAt(i, 5)*float32(mat.Cols())) - x
			height := int(outputReshaped.GetFloatAt(i, 6)*float32(mat.Rows())) - y

			results = append(results, model.Detection{
				Label:      getClassLabel(classID),
				Confidence: float64(confidence),
				X:          x,
				Y:          y,
				Width:      width,
				Height:     height,
			})
		}
	}

	return results, nil
}

// Close releases the network.
func (s *DetectorService) Close() {
	if s.ready {
		s.net.Close()
		s.ready = false
	}
}

// CountPersons returns how many detections carry the person label.
func CountPersons(detections []model.Detection) int {
	count := 0
	for _, d := range detections {
		if d.Label == LabelPerson {
			count++
		}
	}
	return count
}

// getClassLabel maps COCO class IDs to human-readable labels.
func getClassLabel(classID int) string {
	labels := map[int]string{
		1:  "person",
		2:  "bicycle",
		3:  "car",
		4:  "motorcycle",
		5:  "airplane",
		6:  "bus",
		8:  "truck",
		16: "bird",
		17: "cat",
		18: "dog",
	}

	if label, exists := labels[classID]; exists {
		return label
	}
	return fmt.Sprintf("unknown_%d", classID)
}
