// Package naming implements the naming server: the Service surface
// (isDirectory/list/createFile/createDirectory/delete/getStorage) and the
// Registration surface (register), wired on top of internal/namespace and
// internal/registry.
package naming

const (
	MsgIsDirectory     = "naming.isDirectory"
	MsgList            = "naming.list"
	MsgCreateFile      = "naming.createFile"
	MsgCreateDirectory = "naming.createDirectory"
	MsgDelete          = "naming.delete"
	MsgGetStorage      = "naming.getStorage"
	MsgRegister        = "naming.register"
)

const (
	ErrCodeNotFound           = "not_found"
	ErrCodeAlreadyRegistered  = "already_registered"
	ErrCodeNilArgument        = "nil_argument"
	ErrCodeNoStorageAvailable = "no_storage_available"
	ErrCodeRemoteFailure      = "remote_failure"
)

type IsDirectoryRequest struct {
	Path string `json:"path"`
}

type IsDirectoryResponse struct {
	IsDirectory bool `json:"is_directory"`
}

type ListRequest struct {
	Path string `json:"path"`
}

type ListResponse struct {
	Names []string `json:"names"`
}

type CreateFileRequest struct {
	Path string `json:"path"`
}

type CreateFileResponse struct {
	Created bool `json:"created"`
}

type CreateDirectoryRequest struct {
	Path string `json:"path"`
}

type CreateDirectoryResponse struct {
	Created bool `json:"created"`
}

type DeleteRequest struct {
	Path string `json:"path"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type GetStorageRequest struct {
	Path string `json:"path"`
}

type GetStorageResponse struct {
	DataAddr string `json:"data_addr"`
}

// RegisterRequest carries the registering storage server's two stub
// addresses and the paths it already holds locally.
type RegisterRequest struct {
	DataAddr    string   `json:"data_addr"`
	CommandAddr string   `json:"command_addr"`
	Paths       []string `json:"paths"`
}

type RegisterResponse struct {
	DeleteList []string `json:"delete_list"`
}

// ErrorBody is the Response body used to report a domain-level failure
// distinct from plain success.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
