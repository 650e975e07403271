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

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stratastor/rodent/internal/common"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

func (h *Handler) writePrepare(c *gin.Context) {
	var req writePrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.New(errors.ServerRequestValidation, err.Error()))
		return
	}

	intent := &types.Intent{Kind: types.IntentWrite}
	if err := h.svc.WritePrepare(c.Request.Context(), req.Size, req.Tags, intent); err != nil {
		common.APIError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.respond(intent))
}

func (h *Handler) readPrepare(c *gin.Context) {
	var req readPrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.New(errors.ServerRequestValidation, err.Error()))
		return
	}

	intent := &types.Intent{Kind: types.IntentRead, MediumID: req.MediumID}
	if err := h.svc.ReadPrepare(c.Request.Context(), intent); err != nil {
		common.APIError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.respond(intent))
}

func (h *Handler) format(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.New(errors.ServerRequestValidation, err.Error()))
		return
	}

	if err := h.svc.Format(c.Request.Context(), req.MediumID, req.FSType, req.Unlock); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) ioComplete(c *gin.Context) {
	var req ioCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.New(errors.ServerRequestValidation, err.Error()))
		return
	}

	intent, err := h.intents.take(req.IntentID)
	if err != nil {
		c.JSON(http.StatusNotFound, err)
		return
	}

	if err := h.svc.IOComplete(c.Request.Context(), intent, req.FragmentsWritten, req.GlobalMediaError); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) resourceRelease(c *gin.Context) {
	var req resourceReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.New(errors.ServerRequestValidation, err.Error()))
		return
	}

	intent, err := h.intents.take(req.IntentID)
	if err != nil {
		// Releasing an id that has already been released is not an error:
		// resource_release is idempotent.
		c.Status(http.StatusOK)
		return
	}

	err = h.svc.ResourceRelease(c.Request.Context(), intent)
	h.intents.drop(req.IntentID)
	if err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.svc.Devices()})
}

func (h *Handler) deviceAdd(c *gin.Context) {
	var req deviceAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.New(errors.ServerRequestValidation, err.Error()))
		return
	}

	d := types.DriveDescriptor{
		Serial:     req.Serial,
		Model:      req.Model,
		Path:       req.Path,
		Family:     types.Family(req.Family),
		Admin:      types.AdminUnlocked,
		DevicePath: req.Path,
		Status:     types.StatusEmpty,
	}
	if err := h.svc.DeviceAdd(d); err != nil {
		common.APIError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) respond(intent *types.Intent) intentResponse {
	resp := intentResponse{
		RootPath:   intent.RootPath,
		FSType:     intent.FSType,
		AddrScheme: intent.AddrScheme,
	}
	if intent.Medium != nil {
		resp.MediumID = intent.Medium.ID
	}
	if intent.Drive != nil {
		resp.DrivePath = intent.Drive.DevicePath
	}
	resp.IntentID = h.intents.put(intent)
	return resp
}
