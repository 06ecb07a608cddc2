// Package explain computes Guided Backpropagation saliency maps.
//
// An Explainer binds every ReLU of a model to the guided gradient rule
//
//	dx = g * (x > 0) * (g > 0)
//
// and returns, for each input image, the gradient of the labelled class score
// with respect to the image, reduced over channels:
//
//	explainer, err := explain.New(model, explain.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	defer explainer.Close()
//
//	maps, err := explainer.Explain(images, labels) // (N, W, H, C) -> (N, W, H)
//
// Samples are processed in chunks of Config.BatchSize. Chunking bounds memory
// use and never changes the result.
package explain
