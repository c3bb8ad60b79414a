package service

import "errors"

// 管线错误分级：
//   - ErrOutlineParse 致命，整次生成中止，不产生任何持久化数据
//   - ErrExtraction 在 ContentExpander 内部通过兜底章节消化，不向上传播
//   - ErrGenerationService 在章节充实阶段通过占位文本消化，不向上传播
var (
	ErrGenerationService = errors.New("text generation service error")
	ErrExtraction        = errors.New("structured extraction failed")
	ErrOutlineParse      = errors.New("could not parse course outline")
)
