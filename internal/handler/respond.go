package handler

import (
	"net/http"
	"strconv"

	"pointshop/internal/domain"
	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
)

var failureStatus = map[domain.Failure]int{
	domain.FailureInvalidRequest:      http.StatusBadRequest,
	domain.FailureInvalidSignature:    http.StatusForbidden,
	domain.FailureAccountInvalid:      http.StatusNotFound,
	domain.FailureRedemptionDisabled:  http.StatusUnprocessableEntity,
	domain.FailureAccountBanned:       http.StatusUnprocessableEntity,
	domain.FailureNotVerified:         http.StatusUnprocessableEntity,
	domain.FailureDailyLimitExceeded:  http.StatusUnprocessableEntity,
	domain.FailureInsufficientPoints:  http.StatusUnprocessableEntity,
	domain.FailureStockExhausted:      http.StatusConflict,
	domain.FailureDeviceAlreadyBound:  http.StatusConflict,
	domain.FailureAccountAlreadyBound: http.StatusConflict,
	domain.FailureTransient:           http.StatusServiceUnavailable,
	domain.FailureInternal:            http.StatusInternalServerError,
}

var failureMessage = map[domain.Failure]string{
	domain.FailureInvalidRequest:      "Bad request",
	domain.FailureInvalidSignature:    "Invalid signature",
	domain.FailureAccountInvalid:      "Account not found",
	domain.FailureRedemptionDisabled:  "Redemption is currently disabled",
	domain.FailureAccountBanned:       "This account is banned",
	domain.FailureNotVerified:         "Please verify your device first",
	domain.FailureDailyLimitExceeded:  "Daily redemption limit reached",
	domain.FailureInsufficientPoints:  "Not enough points",
	domain.FailureStockExhausted:      "Out of stock. Your points were not deducted",
	domain.FailureDeviceAlreadyBound:  "This device is already verified with another account",
	domain.FailureAccountAlreadyBound: "This account is already verified on another device",
	domain.FailureTransient:           "Server busy, please try again",
	domain.FailureInternal:            "Server error",
}

func statusFor(kind domain.Failure) int {
	if s, ok := failureStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respondError writes {ok:false, reason, message} for err.
func respondError(c *gin.Context, err error) {
	kind := service.Kind(err)
	c.JSON(statusFor(kind), gin.H{"ok": false, "reason": kind, "message": failureMessage[kind]})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "reason": domain.FailureInvalidRequest, "message": message})
}

// idParam parses a positive int64 path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
