package idgen

import (
	"fmt"
	"sync"
	"time"

	sf "github.com/bwmarrin/snowflake"
)

var epochMu sync.Mutex

// Generator 封装雪花算法节点，生成单调递增的64位ID
type Generator struct {
	node *sf.Node
}

// New 创建雪花算法节点
// epoch: 起始时间，格式："2006-01-02"
// nodeID: 机器ID (0-1023)
func New(epoch string, nodeID int64) (*Generator, error) {
	st, err := time.Parse("2006-01-02", epoch)
	if err != nil {
		return nil, fmt.Errorf("解析雪花算法起始时间失败: %w", err)
	}

	// sf.Epoch 是包级变量，NewNode 时读取
	epochMu.Lock()
	defer epochMu.Unlock()
	sf.Epoch = st.UnixNano() / int64(time.Millisecond)

	node, err := sf.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("创建雪花算法节点失败: %w", err)
	}
	return &Generator{node: node}, nil
}

// NextID 生成唯一ID
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
