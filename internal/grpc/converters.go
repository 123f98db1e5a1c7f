package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// errorDomain is the ErrorInfo domain attached to every failure.
const errorDomain = "bangumi-bridge"

// ErrorInfo reasons.
const (
	ReasonSubjectNotFound   = "SUBJECT_NOT_FOUND"
	ReasonRemoteUnavailable = "REMOTE_UNAVAILABLE"
	ReasonInvalidArgument   = "INVALID_ARGUMENT"
)

// toStruct converts a JSON-tagged model into a Struct document.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fromStruct decodes a Struct document into a JSON-tagged model.
func fromStruct(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// intField reads an integral number field. Missing fields yield def.
func intField(in *structpb.Struct, name string, def int) (int, error) {
	value, ok := in.GetFields()[name]
	if !ok {
		return def, nil
	}
	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, invalidArgument(name, "must be a number")
	}
	if number.NumberValue != math.Trunc(number.NumberValue) || number.NumberValue < 0 || number.NumberValue > math.MaxInt32 {
		return 0, invalidArgument(name, "must be a non-negative integer")
	}
	return int(number.NumberValue), nil
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func intListField(in *structpb.Struct, name string) ([]int, error) {
	list := in.GetFields()[name].GetListValue()
	ids := make([]int, 0, len(list.GetValues()))
	for _, value := range list.GetValues() {
		number, ok := value.GetKind().(*structpb.Value_NumberValue)
		if !ok || number.NumberValue != math.Trunc(number.NumberValue) {
			return nil, invalidArgument(name, "must hold integers")
		}
		ids = append(ids, int(number.NumberValue))
	}
	return ids, nil
}

func invalidArgument(field, description string) error {
	st := status.New(codes.InvalidArgument, fmt.Sprintf("%s %s", field, description))
	detailed, err := st.WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: field, Description: description}},
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// toStatus maps domain errors to gRPC status errors carrying an ErrorInfo detail.
func toStatus(err error, metadata map[string]string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		code   codes.Code
		reason string
	)
	switch {
	case errors.Is(err, &apperrors.ErrNotFound{}):
		code, reason = codes.NotFound, ReasonSubjectNotFound
	case errors.Is(err, &apperrors.ErrRemoteUnavailable{}):
		code, reason = codes.Unavailable, ReasonRemoteUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(code, err.Error())
	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: metadata,
	})
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ReasonOf returns the ErrorInfo reason carried by a status error, if any.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}
