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

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the LRS operations under router, each named for
// the intent kind it drives.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	lrs := router.Group("/lrs")
	{
		lrs.POST("/write-prepare", h.writePrepare)
		lrs.POST("/read-prepare", h.readPrepare)
		lrs.POST("/format", h.format)
		lrs.POST("/io-complete", h.ioComplete)
		lrs.POST("/resource-release", h.resourceRelease)

		lrs.GET("/devices", h.listDevices)
		lrs.POST("/devices", h.deviceAdd)
	}
}
