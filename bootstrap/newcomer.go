package bootstrap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// BootstrapInitiateVerbHandler is the newcomer-side receiver for a
// source's pushed file list. Every context is rewritten to a freshly
// allocated local path before it's registered, so the source's
// filenames never leak into this node's data directory. Files of the
// same (table, columnFamily, generation) triple share one generated
// stem, matching how a real sstable's Data/Index/Filter parts must
// land side by side.
func BootstrapInitiateVerbHandler(ctx *Context) message.Handler {
	return func(from string, msg message.Message) (message.Message, error) {
		init, ok := msg.(*InitiateMessage)
		if !ok {
			return nil, &message.ErrMalformedMessage{Reason: "expected bootstrapInitiate"}
		}

		source, err := topology.ParseEndpoint(from)
		if err != nil {
			return nil, err
		}

		ctx.streamContexts.RegisterStreamCompletionHandler(source, &completionHandler{ctx: ctx})
		stems := make(map[DistinctEntryKey]string)
		for _, sc := range init.Contexts {
			ctx.streamContexts.AddStreamContext(source, allocateLocal(ctx, sc, stems))
		}

		ctx.statsInc("newcomer.initiate.received", 1)
		if err := ctx.Transport.SendOneWay(source, &InitiateDoneMessage{}); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// allocateLocal fills in sc.LocalPath with a temp path under this
// node's own data directory, leaving TargetFile - the source's
// identity for the file - untouched so a later verdict still matches
// the source's bookkeeping. Every kind belonging to the same (table,
// columnFamily, generation) triple is assigned the same generated
// stem, taken from or added to stems, and the shipped kind suffix is
// preserved on the local path so the completion handler can still
// tell a primary Data artifact from an auxiliary one once installed.
func allocateLocal(ctx *Context, sc StreamContext, stems map[DistinctEntryKey]string) StreamContext {
	key, kind, ok := DistinctEntryFor(sc.Table, sc.TargetFile)
	if !ok {
		stem := ctx.Store.GetTempSSTableFileName()
		sc.LocalPath = filepath.Join(ctx.Store.DataDirectory(), stem+".db.tmp")
		return sc
	}

	stem, ok := stems[key]
	if !ok {
		stem = ctx.Store.GetTempSSTableFileName()
		stems[key] = stem
	}
	sc.LocalPath = filepath.Join(ctx.Store.DataDirectory(), stem+"-"+kind+".db.tmp")
	return sc
}

// finalPathFor derives a file's installed name from its temp name. The
// shipped kind suffix, plus its .db extension, is already embedded in
// the temp stem by allocateLocal, so installing is just dropping the
// trailing .tmp.
func finalPathFor(tmpPath string) string {
	return strings.TrimSuffix(tmpPath, ".tmp")
}

// completionHandler installs a file once its bytes have fully arrived
// and reports the DELETE/STREAM verdict the newcomer sends back to the
// source.
type completionHandler struct {
	ctx *Context
}

func (h *completionHandler) OnFileComplete(source topology.Endpoint, sc StreamContext, bytesReceived int64) StreamStatus {
	if bytesReceived != sc.ExpectedBytes {
		logger.Infof("bootstrap: %s from %s arrived with %d bytes, expected %d - requesting re-stream",
			sc.TargetFile, source, bytesReceived, sc.ExpectedBytes)
		return StreamStatus{File: sc.TargetFile, BytesReceived: bytesReceived, Action: ActionStream}
	}

	finalPath := finalPathFor(sc.LocalPath)
	reader, err := h.ctx.Writer.RenameAndOpen(sc.LocalPath, finalPath)
	if err != nil {
		logger.Infof("bootstrap: installing %s: %v", sc.LocalPath, err)
		return StreamStatus{File: sc.TargetFile, BytesReceived: bytesReceived, Action: ActionStream}
	}

	// Only the primary Data artifact becomes a table entry; an
	// auxiliary kind (Index, Filter, ...) is installed alongside it but
	// isn't itself addable to the live table set.
	if _, kind, ok := DistinctEntryFor(sc.Table, sc.TargetFile); !ok || kind == DataKind {
		if err := h.ctx.Store.AddSSTable(reader); err != nil {
			logger.Infof("bootstrap: adding sstable %s: %v", finalPath, err)
			return StreamStatus{File: sc.TargetFile, BytesReceived: bytesReceived, Action: ActionStream}
		}
	}

	h.ctx.statsInc("newcomer.file.installed", 1)
	return StreamStatus{File: sc.TargetFile, BytesReceived: bytesReceived, Action: ActionDelete}
}

// FileStreamed is the newcomer's entry point once a file's bytes have
// finished arriving over whatever transfer channel carried them - the
// byte-streaming step itself is outside this subsystem's scope, but
// its completion is this subsystem's to react to. file identifies the
// transfer by its TargetFile, the same identity the source's
// StreamManager keys its bookkeeping by, not this node's local path.
// Resolves the verdict, replies to source, and finishes bootstrap once
// every source is done.
func FileStreamed(ctx *Context, source topology.Endpoint, file string, bytesReceived int64) error {
	status, found, done := ctx.streamContexts.CompleteFile(source, file, bytesReceived)
	if !found {
		return fmt.Errorf("bootstrap: no outstanding stream context for %s from %s", file, source)
	}

	if err := ctx.Transport.SendOneWay(source, &TerminateMessage{Status: status}); err != nil {
		return err
	}
	ctx.statsInc("newcomer.terminate.sent", 1)

	if done && ctx.streamContexts.Empty() {
		FinishBootstrap(ctx)
	}
	return nil
}
