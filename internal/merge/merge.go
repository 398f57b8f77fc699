// Package merge implements the three-way reconciliation between a base
// snapshot, a remote overlay, and a local overlay (spec §4.4). Merge is a
// pure function of its three inputs: the same (base, remote, local) always
// produces the same (new_base, new_local) regardless of which device runs
// it.
package merge

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/tree"
	"github.com/lockbookgo/lbcore/internal/validate"
)

// DocumentText resolves a document's decrypted textual content for the
// text-merge path. Callers without a document store, or whose document is
// not eligible for textual merge, should return ok=false — merge then
// falls back to the keep-both duplication rule.
type DocumentText interface {
	Text(id uuid.UUID, hmac [32]byte) (content string, ok bool)
}

// MaxTextMergeBytes bounds which documents are attempted for textual
// three-way merge; larger documents go straight to keep-both duplication
// (spec §4.4 "small enough").
const MaxTextMergeBytes = 1 << 20 // 1 MiB

// Options bounds the context merge needs beyond the three trees.
type Options struct {
	Signer   crypto.Seed
	SignerPK crypto.PublicKey
	Now      time.Time
	MaxSkew  time.Duration
	Docs     DocumentText
	Logger   *slog.Logger

	// DecryptName resolves an encrypted name to plaintext, given the id of
	// the folder it's wrapped under, so duplicate-name detection (spec
	// invariant 5, §8 scenario 2) compares what the user actually sees
	// instead of raw ciphertext. crypto.EncryptSym draws a fresh nonce
	// every call, so two independent encryptions of the same plaintext
	// never compare equal as ciphertext — left nil, Merge falls back to
	// that weaker ciphertext comparison, which only catches an exact
	// repeated blob.
	DecryptName func(parentID uuid.UUID, encryptedName []byte) (string, error)

	// EncryptName re-encrypts a plaintext name under a folder's key, the
	// inverse of DecryptName. Needed to produce a readable disambiguating
	// suffix on a renamed or repaired file; without it, a conflict that
	// needs one fails rather than silently corrupting the name.
	EncryptName func(parentID uuid.UUID, plaintext string) ([]byte, error)
}

// ConflictNote records a conflict merge resolved automatically, for the
// caller to surface to the user (spec §4.4 "preserve both").
type ConflictNote struct {
	FileID uuid.UUID
	Kind   string
	Detail string
}

// Result is the output of a successful merge: the new authoritative base,
// local's edits rebased onto it, and any conflicts that were resolved by
// duplication rather than a field-wise merge.
type Result struct {
	NewBase   tree.MapTree
	NewLocal  tree.MapTree
	Conflicts []ConflictNote
}

// Merge reconciles base, remote (base + server-side overlay), and local
// (client overlay over base) per spec §4.4, returning the new base/local
// pair. The staged new_local is validated before being returned; if
// validation fails, a rename/move-to-root repair pass runs once and is
// itself validated — repair failing is a fatal merge error.
func Merge(base, remote, local tree.TreeLike, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	newBase := tree.MapTree{}
	for _, id := range remote.Ids() {
		f, _ := remote.MaybeFind(id)
		newBase[id] = f
	}

	allIDs := unionIDs(base, remote, local)

	newLocal := tree.MapTree{}
	var conflicts []ConflictNote

	for _, id := range allIDs {
		baseF, _ := base.MaybeFind(id)
		remoteF, _ := remote.MaybeFind(id)
		localF, _ := local.MaybeFind(id)

		resolved, note, err := resolveOne(baseF, remoteF, localF, opts)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			// Keyed by the resolved record's own id: a content-conflict
			// duplicate carries a fresh id, leaving remote's record at id.
			newLocal[resolved.File.ID] = resolved
		}
		if note != nil {
			conflicts = append(conflicts, *note)
		}
	}

	newLocal, renameNotes, err := resolveNameConflicts(newBase, newLocal, opts)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, renameNotes...)

	staged := tree.Stage(newBase, newLocal)
	verr := validate.Tree(staged, validate.Options{ServerNow: opts.Now, MaxSkew: opts.MaxSkew, DecryptName: opts.DecryptName})
	if verr != nil {
		opts.Logger.Warn("merge: staged tree failed validation, attempting repair", "err", verr)

		repaired, rerr := repair(newBase, newLocal, verr, opts)
		if rerr != nil {
			return nil, model.Wrap(model.ErrUnexpected, "merge repair failed", rerr)
		}
		newLocal = repaired

		staged = tree.Stage(newBase, newLocal)
		if verr2 := validate.Tree(staged, validate.Options{ServerNow: opts.Now, MaxSkew: opts.MaxSkew, DecryptName: opts.DecryptName}); verr2 != nil {
			return nil, model.Wrap(model.ErrUnexpected, "merge repair did not produce a valid tree", verr2)
		}
	}

	return &Result{NewBase: newBase, NewLocal: newLocal, Conflicts: conflicts}, nil
}

func unionIDs(trees ...tree.TreeLike) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, t := range trees {
		for _, id := range t.Ids() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func changed(a, b *model.SignedFile) bool {
	if a == nil && b == nil {
		return false
	}
	if a == nil || b == nil {
		return true
	}
	return !(a.File.Equal(b.File) && bytes.Equal(a.Signature, b.Signature))
}

// resolveOne applies the per-file resolution rules of spec §4.4, returning
// the record (if any) that belongs in new_local for this id.
func resolveOne(base, remote, local *model.SignedFile, opts Options) (*model.SignedFile, *ConflictNote, error) {
	localChanged := changed(base, local)
	remoteChanged := changed(base, remote)

	switch {
	case !localChanged && !remoteChanged:
		return nil, nil, nil

	case !localChanged:
		// Unchanged locally: take remote. Nothing belongs in new_local.
		return nil, nil, nil

	case !remoteChanged:
		// Unchanged remotely: keep local's edit, rebased onto new_base (== remote, identical to base here).
		return local, nil, nil

	default:
		return resolveBothChanged(base, remote, local, opts)
	}
}

// resolveBothChanged handles the case where both sides touched the same
// file since base.
func resolveBothChanged(base, remote, local *model.SignedFile, opts Options) (*model.SignedFile, *ConflictNote, error) {
	// Delete-vs-edit: deletion wins regardless of which side deleted.
	if remote.File.IsDeleted && !local.File.IsDeleted {
		return nil, nil, nil
	}
	if local.File.IsDeleted && !remote.File.IsDeleted {
		return local, nil, nil
	}
	if local.File.IsDeleted && remote.File.IsDeleted {
		return nil, nil, nil
	}

	// Both sides moved this file to different parents: remote's move wins.
	// This only compares the two parents of this one file; a cycle formed
	// by moves of two different files is not detected here and is left to
	// the validation pass after per-file resolution.
	if local.File.Parent != base.File.Parent && remote.File.Parent != base.File.Parent &&
		local.File.Parent != remote.File.Parent {
		// Both moved, to different parents: remote's parent wins (spec: "both moved").
		merged := local.File.Clone()
		merged.Parent = remote.File.Parent
		merged.FolderAccessKey = remote.File.FolderAccessKey
		merged.HasFolderKey = remote.File.HasFolderKey
		return resign(merged, local, opts)
	}

	merged := local.File.Clone()

	// Both renamed: remote wins on name.
	if !bytes.Equal(local.File.EncryptedName, base.File.EncryptedName) &&
		!bytes.Equal(remote.File.EncryptedName, base.File.EncryptedName) &&
		!bytes.Equal(local.File.EncryptedName, remote.File.EncryptedName) {
		merged.EncryptedName = remote.File.EncryptedName
	}

	// Remote moved and local did not: take remote's parent. (When both moved
	// to the same parent, merged already carries it.)
	if remote.File.Parent != base.File.Parent && local.File.Parent == base.File.Parent {
		merged.Parent = remote.File.Parent
		merged.FolderAccessKey = remote.File.FolderAccessKey
		merged.HasFolderKey = remote.File.HasFolderKey
	}

	// Both edited document content: local and remote HMACs differ from base
	// and from each other.
	if local.File.HasDocumentHMAC && remote.File.HasDocumentHMAC &&
		local.File.DocumentHMAC != base.File.DocumentHMAC &&
		remote.File.DocumentHMAC != base.File.DocumentHMAC &&
		local.File.DocumentHMAC != remote.File.DocumentHMAC {
		return resolveContentConflict(base, remote, local, merged, opts)
	}

	// Share grant races: union of grants, higher mode wins per recipient.
	merged.UserAccessKeys = unionAccessKeys(remote.File.UserAccessKeys, local.File.UserAccessKeys)

	return resign(merged, local, opts)
}

// resolveContentConflict attempts a textual three-way merge; falling back
// to preserving both copies (remote in place, local moved to a sibling
// with a CONTENT-CONFLICT suffix) when the document isn't text or is too
// large, or the textual merge itself can't be resolved cleanly.
func resolveContentConflict(base, remote, local *model.SignedFile, merged model.FileMetadata, opts Options) (*model.SignedFile, *ConflictNote, error) {
	if opts.Docs != nil {
		baseText, baseOK := opts.Docs.Text(base.File.ID, base.File.DocumentHMAC)
		remoteText, remoteOK := opts.Docs.Text(remote.File.ID, remote.File.DocumentHMAC)
		localText, localOK := opts.Docs.Text(local.File.ID, local.File.DocumentHMAC)

		if baseOK && remoteOK && localOK &&
			len(baseText) <= MaxTextMergeBytes && len(remoteText) <= MaxTextMergeBytes && len(localText) <= MaxTextMergeBytes {
			if mergedText, ok := threeWayTextMerge(baseText, remoteText, localText); ok {
				// Content merged cleanly. The merged text is always one side's
				// text unchanged, so the merged record points at the content
				// already stored under that side's HMAC and no new document is
				// encrypted. The conflict note tells the caller a merge (not a
				// duplication) happened.
				merged.DocumentHMAC = remote.File.DocumentHMAC
				if mergedText != remoteText {
					merged.DocumentHMAC = local.File.DocumentHMAC
				}
				merged.HasDocumentHMAC = true
				signed, _, err := resign(merged, local, opts)
				note := &ConflictNote{FileID: local.File.ID, Kind: "ContentMergedText", Detail: mergedText[:min(64, len(mergedText))]}
				return signed, note, err
			}
		}
	}

	// Keep-both: remote's version stays in place; local's version is moved
	// to a sibling with a -CONTENT-CONFLICT-<timestamp> suffix, signed locally.
	dupName, err := suffixedName(opts, local.File.Parent, local.File.EncryptedName, local.File.Parent, fmt.Sprintf("-CONTENT-CONFLICT-%d", opts.Now.UnixNano()))
	if err != nil {
		return nil, nil, err
	}

	dup := local.File.Clone()
	dup.ID = uuid.New()
	dup.EncryptedName = dupName
	dup.FolderAccessKey = local.File.FolderAccessKey
	signedDup, _, err := resign(dup, local, opts)
	if err != nil {
		return nil, nil, err
	}

	note := &ConflictNote{FileID: local.File.ID, Kind: "ContentConflictKeepBoth", Detail: dup.ID.String()}
	return signedDup, note, nil
}

// suffixedName decrypts encryptedName under oldParentID's key via
// opts.DecryptName, appends suffix to the plaintext as given, and
// re-encrypts the result under newParentID's key via opts.EncryptName
// (oldParentID and newParentID are the same folder for an in-place rename,
// and differ when repair also moves the file). The result stays readable
// by anyone who could already read the original name, unlike appending the
// suffix directly to the ciphertext blob, which would shift the AEAD tag
// and make the name permanently undecryptable.
func suffixedName(opts Options, oldParentID uuid.UUID, encryptedName []byte, newParentID uuid.UUID, suffix string) ([]byte, error) {
	if opts.DecryptName == nil || opts.EncryptName == nil {
		return nil, model.New(model.ErrUnexpected, "merge: no key material available to rename an encrypted file")
	}

	plain, err := opts.DecryptName(oldParentID, encryptedName)
	if err != nil {
		return nil, model.Wrap(model.ErrUnexpected, "decrypting name for rename", err)
	}

	renamed, err := opts.EncryptName(newParentID, plain+suffix)
	if err != nil {
		return nil, model.Wrap(model.ErrUnexpected, "re-encrypting renamed name", err)
	}
	return renamed, nil
}

// resign produces a new SignedFile for merged, signed by opts.Signer. The
// resulting record represents local's intent rebased onto the merge
// outcome, so it is always signed by the account running the merge
// (typically local's own signer) rather than carrying over remote's or
// local's stale signature.
func resign(merged model.FileMetadata, fallbackSigner *model.SignedFile, opts Options) (*model.SignedFile, *ConflictNote, error) {
	seed := opts.Signer
	now := opts.Now
	if now.IsZero() {
		now = fallbackSigner.Timestamp
	}

	signed, err := model.SignFile(merged, seed, now)
	if err != nil {
		return nil, nil, model.Wrap(model.ErrUnexpected, "resigning merged file", err)
	}
	return signed, nil, nil
}

// unionAccessKeys implements the share-grant race rule: union of grants; a
// recipient present on both sides keeps the higher of the two modes, and
// the encrypted key blob from whichever side holds the higher mode.
func unionAccessKeys(remote, local map[string]model.UserAccessKey) map[string]model.UserAccessKey {
	out := make(map[string]model.UserAccessKey, len(remote)+len(local))
	for k, v := range remote {
		out[k] = v
	}
	for k, v := range local {
		existing, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		if model.Higher(existing.Mode, v.Mode) == v.Mode && v.Mode != existing.Mode {
			out[k] = v
		}
	}
	return out
}

// resolveNameConflicts applies the "would create name conflict among live
// siblings" rule after all per-file resolutions: the losing side (local)
// is renamed with a -NAME-CONFLICT-<n> suffix.
func resolveNameConflicts(base tree.MapTree, local tree.MapTree, opts Options) (tree.MapTree, []ConflictNote, error) {
	staged := tree.Stage(base, local)
	children := tree.AllChildrenMap(staged)

	out := tree.MapTree{}
	for id, f := range local {
		out[id] = f
	}

	var notes []ConflictNote

	for parent, kids := range children {
		byName := make(map[string][]*model.SignedFile)
		for _, k := range kids {
			if k.File.IsDeleted {
				continue
			}
			nameKey, err := conflictNameKey(opts, parent, k.File.EncryptedName)
			if err != nil {
				return nil, nil, err
			}
			byName[nameKey] = append(byName[nameKey], k)
		}

		for _, group := range byName {
			if len(group) < 2 {
				continue
			}
			sort.Slice(group, func(i, j int) bool { return group[i].File.ID.String() < group[j].File.ID.String() })

			hasAnchor := false
			for _, k := range group {
				if _, isLocalOverlay := local[k.File.ID]; !isLocalOverlay {
					hasAnchor = true
					break
				}
			}

			// With a remote/base anchor present, every local-overlay member
			// loses (remote wins on name). With no anchor — a conflict purely
			// among local-overlay creations — the first by id keeps the name
			// and the rest are renamed, so the outcome is independent of
			// which side happened to sort first.
			suffixN := 1
			keptFirst := false
			for _, k := range group {
				_, isLocalOverlay := local[k.File.ID]
				if !isLocalOverlay {
					continue
				}
				if !hasAnchor && !keptFirst {
					keptFirst = true
					continue
				}

				renamed, err := renameForConflictN(k, suffixN, opts)
				if err != nil {
					return nil, nil, err
				}
				suffixN++
				out[renamed.File.ID] = renamed
				notes = append(notes, ConflictNote{FileID: renamed.File.ID, Kind: "NameConflictRenamed", Detail: renamed.File.ID.String()})
			}
		}
	}

	return out, notes, nil
}

// conflictNameKey resolves encryptedName to the key used for duplicate
// grouping: the real plaintext when opts.DecryptName is available, or the
// ciphertext itself otherwise (see the caveat on Options.DecryptName).
func conflictNameKey(opts Options, parentID uuid.UUID, encryptedName []byte) (string, error) {
	if opts.DecryptName == nil {
		return string(encryptedName), nil
	}
	return opts.DecryptName(parentID, encryptedName)
}

func renameForConflictN(f *model.SignedFile, n int, opts Options) (*model.SignedFile, error) {
	suffix := fmt.Sprintf("-NAME-CONFLICT-%d", n)
	newName, err := suffixedName(opts, f.File.Parent, f.File.EncryptedName, f.File.Parent, suffix)
	if err != nil {
		return nil, err
	}

	merged := f.File.Clone()
	merged.EncryptedName = newName

	signed, err := model.SignFile(merged, opts.Signer, opts.Now)
	if err != nil {
		return nil, model.Wrap(model.ErrUnexpected, "signing renamed file", err)
	}
	return signed, nil
}

// threeWayTextMerge performs a conservative three-way text merge over whole
// documents: if one side's lines equal base's, the other side's text is
// taken; if both sides are equal, that text is taken. Any other divergence
// fails the merge (ok=false) so the caller falls back to keep-both
// duplication; edits to different regions of the same document are not
// combined.
func threeWayTextMerge(base, remote, local string) (string, bool) {
	baseLines := splitLines(base)
	remoteLines := splitLines(remote)
	localLines := splitLines(local)

	if linesEqual(baseLines, remoteLines) {
		return local, true
	}
	if linesEqual(baseLines, localLines) {
		return remote, true
	}
	if linesEqual(remoteLines, localLines) {
		return remote, true
	}

	// Both sides diverged from base in a way that isn't a pure superset of
	// the other; declining to guess avoids silently dropping content.
	return "", false
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// repair runs the move-to-root recovery pass described in spec §4.4: any
// file implicated in the validation failure is moved to its owner's root
// with a disambiguating name, then re-validated. This only handles the
// common cases (name conflicts and non-folder parents left over after
// per-file resolution); a cycle or orphan surviving to this point indicates
// a deeper bug and is reported as a fatal merge error by the caller.
func repair(base tree.MapTree, local tree.MapTree, cause error, opts Options) (tree.MapTree, error) {
	kind := model.KindOf(cause)
	if kind != model.ErrNameConflict && kind != model.ErrNonFolderParent {
		return nil, fmt.Errorf("merge: repair does not handle validation failure kind %s: %w", kind, cause)
	}

	staged := tree.Stage(base, local)
	out := tree.MapTree{}
	for id, f := range local {
		out[id] = f
	}

	for _, f := range local {
		root, err := tree.RootOf(staged, func(sf *model.SignedFile) bool {
			return sf.File.Owner.Equal(f.File.Owner)
		})
		if err != nil {
			continue
		}

		merged := f.File.Clone()
		oldParentID := f.File.Parent
		merged.Parent = root.File.ID
		renamed, err := suffixedName(opts, oldParentID, merged.EncryptedName, root.File.ID, fmt.Sprintf("-REPAIRED-%d", opts.Now.UnixNano()))
		if err != nil {
			return nil, err
		}
		merged.EncryptedName = renamed

		signed, err := model.SignFile(merged, opts.Signer, opts.Now)
		if err != nil {
			return nil, model.Wrap(model.ErrUnexpected, "signing repaired file", err)
		}
		out[signed.File.ID] = signed
	}

	return out, nil
}
