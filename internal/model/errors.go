// Package model holds the core data types shared across the lockbook-go
// engine: accounts, file metadata, signed records, and the typed error
// surface returned by every layer above it.
package model

import (
	"errors"
	"fmt"
	"runtime"
)

// LbErrKind enumerates every error kind the core engine can surface to a
// caller. Kept exhaustive and flat (rather than nested per-package errors)
// so front-ends can switch on a single type, matching the teacher's
// graph.GraphError sentinel-wrapping style but widened to a full kind enum
// since the core surface is much larger than one HTTP client.
type LbErrKind int

const (
	ErrUnexpected LbErrKind = iota
	ErrAccountExists
	ErrAccountNonexistent
	ErrAccountStringCorrupted
	ErrKeyPhraseInvalid
	ErrUsernameTaken
	ErrUsernameInvalid
	ErrUsernameNotFound
	ErrUsernamePublicKeyMismatch
	ErrClientUpdateRequired
	ErrServerUnreachable
	ErrServerDisabled
	ErrTryAgain
	ErrFileNonexistent
	ErrFileNameEmpty
	ErrFileNameContainsSlash
	ErrFileNameTooLong
	ErrFileNotDocument
	ErrFileNotFolder
	ErrFileParentNonexistent
	ErrFolderMovedIntoSelf
	ErrPathTaken
	ErrPathContainsEmptyFileName
	ErrRootNonexistent
	ErrRootModificationInvalid
	ErrInsufficientPermission
	ErrShareAlreadyExists
	ErrShareNonexistent
	ErrLinkInSharedFolder
	ErrLinkTargetIsOwned
	ErrLinkTargetNonexistent
	ErrMultipleLinksToSameFile
	ErrAlreadySyncing
	ErrReReadRequired
	ErrNonexistentDocument
	ErrAlreadyOpen
	ErrCycle
	ErrOrphan
	ErrNameConflict
	ErrSharedLink
	ErrOwnedLink
	ErrNonFolderParent
	ErrDeletedFileUpdated
	ErrSignatureInvalid
	ErrHmacMismatch
)

// String renders the kind as the bare identifier used throughout the
// original source (e.g. "ClientUpdateRequired"), which front-ends switch on.
func (k LbErrKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "Unexpected"
}

var kindNames = map[LbErrKind]string{
	ErrUnexpected:                "Unexpected",
	ErrAccountExists:             "AccountExists",
	ErrAccountNonexistent:        "AccountNonexistent",
	ErrAccountStringCorrupted:    "AccountStringCorrupted",
	ErrKeyPhraseInvalid:          "KeyPhraseInvalid",
	ErrUsernameTaken:             "UsernameTaken",
	ErrUsernameInvalid:           "UsernameInvalid",
	ErrUsernameNotFound:          "UsernameNotFound",
	ErrUsernamePublicKeyMismatch: "UsernamePublicKeyMismatch",
	ErrClientUpdateRequired:      "ClientUpdateRequired",
	ErrServerUnreachable:         "ServerUnreachable",
	ErrServerDisabled:            "ServerDisabled",
	ErrTryAgain:                  "TryAgain",
	ErrFileNonexistent:           "FileNonexistent",
	ErrFileNameEmpty:             "FileNameEmpty",
	ErrFileNameContainsSlash:     "FileNameContainsSlash",
	ErrFileNameTooLong:           "FileNameTooLong",
	ErrFileNotDocument:           "FileNotDocument",
	ErrFileNotFolder:             "FileNotFolder",
	ErrFileParentNonexistent:     "FileParentNonexistent",
	ErrFolderMovedIntoSelf:       "FolderMovedIntoSelf",
	ErrPathTaken:                 "PathTaken",
	ErrPathContainsEmptyFileName: "PathContainsEmptyFileName",
	ErrRootNonexistent:           "RootNonexistent",
	ErrRootModificationInvalid:   "RootModificationInvalid",
	ErrInsufficientPermission:    "InsufficientPermission",
	ErrShareAlreadyExists:        "ShareAlreadyExists",
	ErrShareNonexistent:          "ShareNonexistent",
	ErrLinkInSharedFolder:        "LinkInSharedFolder",
	ErrLinkTargetIsOwned:         "LinkTargetIsOwned",
	ErrLinkTargetNonexistent:     "LinkTargetNonexistent",
	ErrMultipleLinksToSameFile:   "MultipleLinksToSameFile",
	ErrAlreadySyncing:            "AlreadySyncing",
	ErrReReadRequired:            "ReReadRequired",
	ErrNonexistentDocument:       "NonexistentDocument",
	ErrAlreadyOpen:               "AlreadyOpen",
	ErrCycle:                     "Cycle",
	ErrOrphan:                    "Orphan",
	ErrNameConflict:              "NameConflict",
	ErrSharedLink:                "SharedLink",
	ErrOwnedLink:                 "OwnedLink",
	ErrNonFolderParent:           "NonFolderParent",
	ErrDeletedFileUpdated:        "DeletedFileUpdated",
	ErrSignatureInvalid:          "SignatureInvalid",
	ErrHmacMismatch:              "HmacMismatch",
}

// LbErr is the single error type returned across the core API boundary. It
// carries a typed Kind for programmatic dispatch, a human message, an
// optional wrapped cause, and a best-effort capture of the call site —
// callers render Kind for UI and log Msg/Cause for diagnostics.
type LbErr struct {
	Kind  LbErrKind
	Msg   string
	Cause error
	Stack string
}

func (e *LbErr) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}

	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}

	return e.Kind.String()
}

func (e *LbErr) Unwrap() error { return e.Cause }

// New constructs an LbErr of the given kind with a message.
func New(kind LbErrKind, msg string) *LbErr {
	return &LbErr{Kind: kind, Msg: msg, Stack: captureStack()}
}

// Wrap constructs an LbErr of the given kind wrapping an underlying cause.
func Wrap(kind LbErrKind, msg string, cause error) *LbErr {
	return &LbErr{Kind: kind, Msg: msg, Cause: cause, Stack: captureStack()}
}

// Unexpected is the last-resort catchall: it always carries a debug cause.
func Unexpected(cause error) *LbErr {
	return &LbErr{Kind: ErrUnexpected, Msg: "unexpected error", Cause: cause, Stack: captureStack()}
}

// KindOf extracts the LbErrKind from err, defaulting to ErrUnexpected for
// errors that were never tagged (e.g. raw errors from third-party libs).
func KindOf(err error) LbErrKind {
	var lb *LbErr
	if errors.As(err, &lb) {
		return lb.Kind
	}

	return ErrUnexpected
}

// Is reports whether err (or any error it wraps) carries the given kind.
func Is(err error, kind LbErrKind) bool {
	return KindOf(err) == kind
}

func captureStack() string {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	out := ""
	for {
		frame, more := frames.Next()
		out += fmt.Sprintf("%s:%d\n", frame.File, frame.Line)

		if !more {
			break
		}
	}

	return out
}
