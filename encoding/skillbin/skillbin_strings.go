// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package skillbin

// WriteStringBlock encodes one string block: a v64 count, one cumulative
// i32 end offset per string, then the concatenated UTF-8 bytes.
func WriteStringBlock(o *Out, strs []string) {
	o.V64(uint64(len(strs)))
	end := int32(0)
	for _, s := range strs {
		end += int32(len(s))
		o.I32(end)
	}
	for _, s := range strs {
		o.Raw([]byte(s))
	}
}

// ReadStringBlock decodes one string block.
func ReadStringBlock(in *In) ([]string, error) {
	count, err := in.V64()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	ends := make([]int32, count)
	for ii := range ends {
		end, err := in.I32()
		if err != nil {
			return nil, err
		}
		ends[ii] = end
	}

	strs := make([]string, count)
	prev := int32(0)
	for ii, end := range ends {
		if end < prev {
			return nil, errStringOffsets(ii, prev, end)
		}
		chunk, err := in.Take(int(end-prev), "string data")
		if err != nil {
			return nil, err
		}
		strs[ii] = string(chunk)
		prev = end
	}
	return strs, nil
}
