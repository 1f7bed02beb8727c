package shorelib

import (
	"math"

	"github.com/wgdzlh/shorelib/log"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// 直方图的局部极大值下标（升降方向切换点，末端处于上升段时计入末bin，
// 否则双值影像这类两端尖峰的直方图会漏掉右峰）
func localMaximaIdx(hist []float64) (idxs []int) {
	direction := 1
	for i := 0; i < len(hist)-1; i++ {
		if direction > 0 {
			if hist[i+1] < hist[i] {
				direction = -1
				idxs = append(idxs, i)
			}
		} else if hist[i+1] > hist[i] {
			direction = 1
		}
	}
	if direction > 0 {
		idxs = append(idxs, len(hist)-1)
	}
	return
}

// 3点均值平滑（边界反射）
func smoothHist(hist []float64) []float64 {
	n := len(hist)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		prev, next := i-1, i+1
		if prev < 0 {
			prev = 0
		}
		if next >= n {
			next = n - 1
		}
		out[i] = (hist[prev] + hist[i] + hist[next]) / 3
	}
	return out
}

// 最小值法阈值：对有效采样的强度直方图反复平滑，直至仅剩两个峰，
// 取两峰之间的最低点。直方图退化（单峰/全同值）时返回ErrThresholdFailure。
func MinimumThreshold(samples []float64) (threshold float64, err error) {
	var valid []float64
	for _, v := range samples {
		// 排除nodata（NaN）与非正值，零常被L2A产品用作备用填充
		if !math.IsNaN(v) && v > 0 {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		log.Error("no valid samples for thresholding")
		err = ErrEmptyTif
		return
	}
	lo, hi := floats.Min(valid), floats.Max(valid)
	if hi <= lo {
		err = ErrThresholdFailure
		return
	}
	width := (hi - lo) / ThresholdBins
	hist := make([]float64, ThresholdBins)
	for _, v := range valid {
		bin := int((v - lo) / width)
		if bin >= ThresholdBins {
			bin = ThresholdBins - 1
		}
		hist[bin]++
	}
	var maxima []int
	smoothed := hist
	iter := 0
	for ; iter < ThresholdMaxSmooth; iter++ {
		smoothed = smoothHist(smoothed)
		maxima = localMaximaIdx(smoothed)
		if len(maxima) < 3 {
			break
		}
	}
	if len(maxima) != 2 {
		log.Error("minimum threshold failed", zap.Int("maxima", len(maxima)), zap.Int("iter", iter))
		err = ErrThresholdFailure
		return
	}
	between := smoothed[maxima[0] : maxima[1]+1]
	thresholdIdx := maxima[0] + floats.MinIdx(between)
	threshold = lo + (float64(thresholdIdx)+0.5)*width
	log.Info("minimum threshold determined", zap.Float64("threshold", threshold),
		zap.Int("validSamples", len(valid)), zap.Int("smoothIters", iter+1))
	return
}

// 构建水体掩膜：NIR低反射率（<=阈值）为水，NaN视作非水
func BuildWaterMask(band *Band) (mask []bool, threshold float64, err error) {
	if threshold, err = MinimumThreshold(band.Data); err != nil {
		return
	}
	mask = make([]bool, len(band.Data))
	for i, v := range band.Data {
		mask[i] = v <= threshold // NaN比较恒为false
	}
	return
}
