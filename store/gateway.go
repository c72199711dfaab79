package store

import (
	"context"
	"encoding/json"
	"fmt"
)

type Action string

const (
	ActionRead       Action = "read"
	ActionAppend     Action = "append"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionUploadFile Action = "uploadFile"
)

// Collection names mirror the spreadsheet tabs of the original deployment.
const (
	Devices          = "Devices"
	Products         = "Products"
	Users            = "Users"
	Teachers         = "Teachers"
	StudentsM4       = "StudentsM4"
	StudentsM5       = "StudentsM5"
	StudentsM6       = "StudentsM6"
	Service          = "Service"
	History          = "History"
	ActivityLogs     = "ActivityLogs"
	ProductApprovals = "ProductApprovals"
)

// StudentCollections are read and concatenated into one student directory.
var StudentCollections = []string{StudentsM4, StudentsM5, StudentsM6}

// Result is the uniform gateway response. Data carries the full collection on
// read and the stored record on append (the server may assign an id); URL is
// set only for uploadFile.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// Gateway is the single persistence contract the engines talk to. Every call
// is one request/response round trip; there is no streaming and no retry.
type Gateway interface {
	Invoke(ctx context.Context, action Action, collection string, payload any) (*Result, error)
}

// RemoteError wraps a store-reported failure. The message is surfaced to the
// user verbatim.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return e.Msg }

// Call invokes the gateway and folds transport failures and store-reported
// failures into a single *RemoteError, so engines have one abort path.
func Call(ctx context.Context, gw Gateway, action Action, collection string, payload any) (*Result, error) {
	res, err := gw.Invoke(ctx, action, collection, payload)
	if err != nil {
		return nil, &RemoteError{Msg: err.Error()}
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = fmt.Sprintf("%s %s failed", action, collection)
		}
		return nil, &RemoteError{Msg: msg}
	}
	return res, nil
}

// ReadInto reads a whole collection and decodes it into out (a slice pointer).
// An empty or missing data payload decodes to an empty slice.
func ReadInto(ctx context.Context, gw Gateway, collection string, out any) error {
	res, err := Call(ctx, gw, ActionRead, collection, nil)
	if err != nil {
		return err
	}
	if len(res.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return &RemoteError{Msg: fmt.Sprintf("decode %s: %v", collection, err)}
	}
	return nil
}
