// Package biometric isolates a face from a document image and compares two
// face images, backed by AWS Rekognition.
package biometric

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"bankassist/pkg/platform/sentinel"
)

// FaceAPI is the subset of the Rekognition client this gateway uses.
type FaceAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	CompareFaces(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error)
}

// Gateway implements face isolation and matching.
type Gateway struct {
	client    FaceAPI
	threshold float32
}

// New creates the gateway. threshold is the CompareFaces similarity cutoff
// in percent.
func New(client FaceAPI, threshold float32) *Gateway {
	return &Gateway{client: client, threshold: threshold}
}

// NewFromConfig builds the gateway from an AWS config.
func NewFromConfig(cfg aws.Config, threshold float32) *Gateway {
	return New(rekognition.NewFromConfig(cfg), threshold)
}

// IsolateFace finds the most prominent face in a document image and returns
// it cropped as JPEG bytes. Returns sentinel.ErrNotFound when the image has
// no detectable face; transient service failures wrap sentinel.ErrUnavailable.
func (g *Gateway) IsolateFace(ctx context.Context, image []byte) ([]byte, error) {
	out, err := g.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(out.FaceDetails) == 0 {
		return nil, fmt.Errorf("no face in document image: %w", sentinel.ErrNotFound)
	}

	box := out.FaceDetails[0].BoundingBox
	if box == nil {
		return nil, fmt.Errorf("face detected without bounding box: %w", sentinel.ErrNotFound)
	}

	cropped, err := cropJPEG(image, box)
	if err != nil {
		return nil, fmt.Errorf("crop face region: %w", err)
	}
	return cropped, nil
}

// Match compares the live photo against the isolated reference face.
func (g *Gateway) Match(ctx context.Context, livePhoto, referenceFace []byte) (bool, error) {
	out, err := g.client.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         &types.Image{Bytes: referenceFace},
		TargetImage:         &types.Image{Bytes: livePhoto},
		SimilarityThreshold: aws.Float32(g.threshold),
	})
	if err != nil {
		return false, fmt.Errorf("compare faces: %w: %w", sentinel.ErrUnavailable, err)
	}
	return len(out.FaceMatches) > 0, nil
}
