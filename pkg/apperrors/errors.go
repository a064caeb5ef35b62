// Package apperrors provides the engine's error kinds.
//
// Every guard failure carries a Kind, which the transport layer maps to a
// status code, and a Code naming the specific failure.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindForbidden              Kind = "FORBIDDEN"
	KindConflict               Kind = "CONFLICT"
	KindInvalidInput           Kind = "INVALID_INPUT"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindStorageFailure         Kind = "STORAGE_FAILURE"
	KindInternal               Kind = "INTERNAL"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeStateNotFound           Code = "STATE_NOT_FOUND"
	CodeNotMember               Code = "NOT_MEMBER"
	CodeMemberNotFound          Code = "MEMBER_NOT_FOUND"
	CodeAllianceNotFound        Code = "ALLIANCE_NOT_FOUND"
	CodeAllianceMemberNotFound  Code = "ALLIANCE_MEMBER_NOT_FOUND"
	CodeRelationRequestNotFound Code = "RELATION_REQUEST_NOT_FOUND"
	CodeWarNotFound             Code = "WAR_NOT_FOUND"
	CodeBattleNotFound          Code = "BATTLE_NOT_FOUND"

	CodeForbidden          Code = "FORBIDDEN"
	CodeInsufficientRole   Code = "INSUFFICIENT_ROLE"
	CodeSelfRoleChange     Code = "SELF_ROLE_CHANGE"
	CodeRulerOnly          Code = "RULER_ONLY"
	CodeAdminOnly          Code = "ADMIN_ONLY"
	CodeNotParticipant     Code = "NOT_PARTICIPANT"
	CodeWrongReviewingSide Code = "WRONG_REVIEWING_SIDE"

	CodeAlreadyMember         Code = "ALREADY_MEMBER"
	CodeDualCitizenshipDenied Code = "DUAL_CITIZENSHIP_DENIED"
	CodeAllianceNameTaken     Code = "ALLIANCE_NAME_TAKEN"
	CodeAlreadyAllianceMember Code = "ALREADY_ALLIANCE_MEMBER"
	CodeAlreadyRequested      Code = "ALREADY_REQUESTED"
	CodeWarAlreadyInProgress  Code = "WAR_ALREADY_IN_PROGRESS"
	CodeDuplicate             Code = "DUPLICATE"

	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidRole   Code = "INVALID_ROLE"
	CodeSelfPair      Code = "SELF_PAIR"
	CodeInvalidColor  Code = "INVALID_COLOR"
	CodeInvalidKind   Code = "INVALID_KIND"
	CodeInvalidStatus Code = "INVALID_STATUS"

	CodeCannotLeaveAsRuler Code = "CANNOT_LEAVE_AS_RULER"
	CodeInvalidWarState    Code = "INVALID_WAR_STATE"
	CodeAllianceNotActive  Code = "ALLIANCE_NOT_ACTIVE"
	CodeNotApplicant       Code = "NOT_APPLICANT"
	CodeRequestNotPending  Code = "REQUEST_NOT_PENDING"

	CodeNoRowsAffected Code = "NO_ROWS_AFFECTED"
	CodeInternal       Code = "INTERNAL"
)

// Error is the domain error type.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// With returns a copy of base carrying a more specific message. The copy
// still matches base under errors.Is.
func With(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or CodeInternal when err is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Shared sentinels. Compare with errors.Is.
var (
	ErrStateNotFound    = New(KindNotFound, CodeStateNotFound, "state not found")
	ErrNotMember        = New(KindNotFound, CodeNotMember, "player is not a member of the state")
	ErrInsufficientRole = New(KindForbidden, CodeInsufficientRole, "insufficient role in state")
	ErrAdminOnly        = New(KindForbidden, CodeAdminOnly, "platform administrator privilege required")
	ErrNoRowsAffected   = New(KindStorageFailure, CodeNoRowsAffected, "write did not affect any row")
	ErrDuplicate        = New(KindConflict, CodeDuplicate, "duplicate record")
	ErrInvalidWarState  = New(KindInvalidStateTransition, CodeInvalidWarState, "war status transition is not allowed")
	ErrCannotLeaveRuler = New(KindForbidden, CodeCannotLeaveAsRuler, "a ruler must transfer the title before leaving")
	ErrAlreadyRequested = New(KindConflict, CodeAlreadyRequested, "a pending request already exists for this pair")
	ErrAlreadyMember    = New(KindConflict, CodeAlreadyMember, "player already has a membership in this state")
	ErrDualCitizenship  = New(KindForbidden, CodeDualCitizenshipDenied, "dual citizenship is not allowed")

	ErrAllianceNotFound       = New(KindNotFound, CodeAllianceNotFound, "alliance not found")
	ErrAllianceMemberNotFound = New(KindNotFound, CodeAllianceMemberNotFound, "alliance membership not found")
	ErrAllianceNameTaken      = New(KindConflict, CodeAllianceNameTaken, "alliance name is already taken")
	ErrAlreadyAllianceMember  = New(KindConflict, CodeAlreadyAllianceMember, "state already has a membership row in this alliance")
	ErrAllianceNotActive      = New(KindInvalidStateTransition, CodeAllianceNotActive, "alliance is not active")
	ErrRequestNotFound        = New(KindNotFound, CodeRelationRequestNotFound, "relation request not found")
	ErrRequestNotPending      = New(KindInvalidStateTransition, CodeRequestNotPending, "relation request is not pending")
	ErrWarNotFound            = New(KindNotFound, CodeWarNotFound, "war not found")
	ErrBattleNotFound         = New(KindNotFound, CodeBattleNotFound, "battle not found")
	ErrWarInProgress          = New(KindConflict, CodeWarAlreadyInProgress, "a war between these states is already in progress")
	ErrNotParticipant         = New(KindForbidden, CodeNotParticipant, "state is not a participant of the war")
)
