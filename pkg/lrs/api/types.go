/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import "github.com/stratastor/rodent/pkg/lrs/service"

// Handler provides HTTP endpoints over the LRS service: write_prepare,
// read_prepare, format, io_complete, resource_release and device listing.
type Handler struct {
	svc     *service.Service
	intents *intentStore
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, intents: newIntentStore()}
}

// writePrepareRequest is the body for POST /lrs/write-prepare.
type writePrepareRequest struct {
	Size int64    `json:"size" binding:"required"`
	Tags []string `json:"tags"`
}

// intentResponse carries back the handle (intentId) the caller must
// present to io_complete/resource_release, plus the fields of
// types.Intent it needs to drive its own I/O.
type intentResponse struct {
	IntentID   string `json:"intentId"`
	MediumID   string `json:"mediumId"`
	DrivePath  string `json:"drivePath"`
	RootPath   string `json:"rootPath"`
	FSType     string `json:"fsType"`
	AddrScheme string `json:"addrScheme"`
}

// readPrepareRequest is the body for POST /lrs/read-prepare.
type readPrepareRequest struct {
	MediumID string `json:"mediumId" binding:"required"`
}

// formatRequest is the body for POST /lrs/format.
type formatRequest struct {
	MediumID string `json:"mediumId" binding:"required"`
	FSType   string `json:"fsType" binding:"required"`
	Unlock   bool   `json:"unlock"`
}

// ioCompleteRequest is the body for POST /lrs/io-complete.
type ioCompleteRequest struct {
	IntentID         string `json:"intentId" binding:"required"`
	FragmentsWritten int64  `json:"fragmentsWritten"`
	GlobalMediaError bool   `json:"globalMediaError"`
}

// resourceReleaseRequest is the body for POST /lrs/resource-release.
type resourceReleaseRequest struct {
	IntentID string `json:"intentId" binding:"required"`
}

// deviceAddRequest is the body for POST /lrs/devices.
type deviceAddRequest struct {
	Serial string `json:"serial" binding:"required"`
	Model  string `json:"model" binding:"required"`
	Path   string `json:"path" binding:"required"`
	Family string `json:"family" binding:"required"` // "tape" or "dir"
}
