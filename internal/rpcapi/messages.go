package rpcapi

import "github.com/gridbox/provider/internal/item"

// MetadataValue is the wire form of item.MetadataValue.
type MetadataValue struct {
	IsInt bool   `json:"is_int,omitempty"`
	Str   string `json:"str,omitempty"`
	Int   int64  `json:"int,omitempty"`
}

// Item is the wire form of item.Item, per spec.md section 4.1's Item
// validation contract — every field below is validated before the server
// ever marshals one of these.
type Item struct {
	ItemID    string                   `json:"item_id"`
	ParentIDs []string                 `json:"parent_ids"`
	Name      string                   `json:"name"`
	ETag      string                   `json:"etag"`
	Type      string                   `json:"type"`
	Metadata  map[string]MetadataValue `json:"metadata,omitempty"`
}

// FromItem converts a validated domain item.Item to its wire form.
func FromItem(it item.Item) Item {
	md := make(map[string]MetadataValue, len(it.Metadata))
	for k, v := range it.Metadata {
		md[k] = MetadataValue{IsInt: v.IsInt, Str: v.Str, Int: v.Int}
	}
	return Item{
		ItemID:    it.ItemID,
		ParentIDs: append([]string(nil), it.ParentIDs...),
		Name:      it.Name,
		ETag:      it.ETag,
		Type:      string(it.Type),
		Metadata:  md,
	}
}

// ToItem converts a wire Item back to the domain type.
func ToItem(w Item) item.Item {
	md := make(map[string]item.MetadataValue, len(w.Metadata))
	for k, v := range w.Metadata {
		md[k] = item.MetadataValue{IsInt: v.IsInt, Str: v.Str, Int: v.Int}
	}
	return item.Item{
		ItemID:    w.ItemID,
		ParentIDs: append([]string(nil), w.ParentIDs...),
		Name:      w.Name,
		ETag:      w.ETag,
		Type:      item.Type(w.Type),
		Metadata:  md,
	}
}

// --- ProviderService messages ---

type RootsRequest struct{}

type RootsResponse struct {
	Items []Item `json:"items"`
}

type ListRequest struct {
	ItemID    string `json:"item_id"`
	PageToken string `json:"page_token"`
}

type ListResponse struct {
	Items         []Item `json:"items"`
	NextPageToken string `json:"next_page_token"`
}

type LookupRequest struct {
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
}

type LookupResponse struct {
	Items []Item `json:"items"`
}

type MetadataRequest struct {
	ItemID string `json:"item_id"`
}

type MetadataResponse struct {
	Item Item `json:"item"`
}

type CreateFolderRequest struct {
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
}

type CreateFolderResponse struct {
	Item Item `json:"item"`
}

type CreateFileRequest struct {
	ParentID       string `json:"parent_id"`
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	ContentType    string `json:"content_type"`
	AllowOverwrite bool   `json:"allow_overwrite"`
}

type CreateFileResponse struct {
	UploadID string `json:"upload_id"`
}

type UpdateRequest struct {
	ItemID  string `json:"item_id"`
	Size    int64  `json:"size"`
	OldETag string `json:"old_etag"`
}

type UpdateResponse struct {
	UploadID string `json:"upload_id"`
}

type FinishUploadRequest struct {
	UploadID string `json:"upload_id"`
}

type FinishUploadResponse struct {
	Item Item `json:"item"`
}

type CancelUploadRequest struct {
	UploadID string `json:"upload_id"`
}

type CancelUploadResponse struct{}

type DownloadRequest struct {
	ItemID    string `json:"item_id"`
	MatchETag string `json:"match_etag"`
}

type DownloadResponse struct {
	DownloadID string `json:"download_id"`
}

type FinishDownloadRequest struct {
	DownloadID string `json:"download_id"`
}

type FinishDownloadResponse struct{}

type DeleteRequest struct {
	ItemID string `json:"item_id"`
}

type DeleteResponse struct{}

type MoveRequest struct {
	ItemID      string `json:"item_id"`
	NewParentID string `json:"new_parent_id"`
	NewName     string `json:"new_name"`
}

type MoveResponse struct {
	Item Item `json:"item"`
}

type CopyRequest struct {
	ItemID      string `json:"item_id"`
	NewParentID string `json:"new_parent_id"`
	NewName     string `json:"new_name"`
}

type CopyResponse struct {
	Item Item `json:"item"`
}

// --- Transfer streaming messages ---
//
// UploadChunks/DownloadChunks are the streaming-RPC replacement for
// spec.md's fd-passing transfer socket (see SPEC_FULL.md's transport
// re-mapping). The opaque upload_id/download_id returned by the
// initiating unary call (CreateFile/Update/Download) scopes each stream to
// exactly one PendingJob.

// UploadChunk is one message of a client-streaming UploadChunks call.
type UploadChunk struct {
	UploadID string `json:"upload_id"`
	Data     []byte `json:"data,omitempty"`
}

// UploadChunksResponse acknowledges a fully-drained upload stream. It does
// not itself finalize the job — FinishUpload does that — it only confirms
// every byte reached the temp file.
type UploadChunksResponse struct {
	BytesReceived int64 `json:"bytes_received"`
}

// DownloadChunksRequest opens a server-streaming read of a download job
// previously created by Download.
type DownloadChunksRequest struct {
	DownloadID string `json:"download_id"`
}

// DownloadChunk is one message of a server-streaming DownloadChunks call.
type DownloadChunk struct {
	Data []byte `json:"data,omitempty"`
}

// --- RegistryService messages ---

type RegistryListRequest struct{}

// AccountDetails mirrors spec.md section 6's registry record:
// (id, serviceId, displayName, providerId, providerName, iconName).
type AccountDetails struct {
	ID           string `json:"id"`
	ServiceID    string `json:"service_id"`
	DisplayName  string `json:"display_name"`
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	IconName     string `json:"icon_name"`
}

type RegistryListResponse struct {
	Accounts []AccountDetails `json:"accounts"`
}
