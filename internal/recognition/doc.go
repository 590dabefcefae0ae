// Package recognition reads license plate text from a photograph.
//
// The pipeline enhances the frame, locates the most confident plate region,
// renders four enhanced views of it, reads characters from each view and
// votes on the result:
//
//	rec := recognition.New(enhance.New(), plates, chars, recognition.Options{})
//	res, err := rec.Recognize(ctx, img)
//	if err != nil {
//		return err
//	}
//	fmt.Println(res) // "Error 404" when no plate was read
//
// Character detections become text through an Assembler: letters are read
// right to left and placed before the digits, which are read left to right.
// The mapping from detector class names to characters is a LabelMap, by
// default the Arabic plate alphabet.
package recognition
