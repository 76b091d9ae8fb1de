/*
 * Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package workload

const pageSize = 4096

// BaselineSet holds long-lived blocks that are allocated once and never mutated,
// giving the collector a steady resident heap to trace on every cycle
type BaselineSet struct {
	blocks    [][]byte
	blockSize int
}

// NewBaselineSet allocates count blocks of blockSize bytes and touches every
// page of every block so the memory is resident
func NewBaselineSet(count, blockSize int) *BaselineSet {
	if count < 0 {
		count = 0
	}
	if blockSize < 0 {
		blockSize = 0
	}
	blocks := make([][]byte, count)
	for i := range blocks {
		block := make([]byte, blockSize)
		for off := 0; off < len(block); off += pageSize {
			block[off] = byte(i)
		}
		blocks[i] = block
	}
	return &BaselineSet{blocks: blocks, blockSize: blockSize}
}

// Count returns the number of blocks
func (s *BaselineSet) Count() int {
	return len(s.blocks)
}

// BlockSize returns the size of each block in bytes
func (s *BaselineSet) BlockSize() int {
	return s.blockSize
}

// Bytes returns the total number of bytes held
func (s *BaselineSet) Bytes() int64 {
	return int64(len(s.blocks)) * int64(s.blockSize)
}
