package api

import (
	"net/http"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"go.uber.org/zap"
)

var statusByKind = map[failure.Kind]int{
	failure.Unauthorized:      http.StatusForbidden,
	failure.InvalidFee:        http.StatusUnprocessableEntity,
	failure.InvalidState:      http.StatusConflict,
	failure.InsufficientFunds: http.StatusPaymentRequired,
	failure.ExpiredOrReplayed: http.StatusConflict,
	failure.NotFound:          http.StatusNotFound,
	failure.InvalidArgument:   http.StatusBadRequest,
}

type errorResponse struct {
	Kind    failure.Kind `json:"kind,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := failure.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		zap.L().With(zap.Error(err)).Error("Api: Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
		return
	}

	zap.L().With(zap.Error(err), zap.Int("status", status)).Debug("Api: Request rejected")
	writeJSON(w, status, errorResponse{Kind: kind, Code: failure.CodeOf(err), Message: err.Error()})
}
